package search

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"

	errx "github.com/dm-insight-core/server/internal/core/error"
	"github.com/dm-insight-core/server/internal/textutil"
	logx "github.com/dm-insight-core/server/pkg/logger"
)

const systemPrompt = "너는 문화예술행사 전문 에이전트야. 한국어로 대답하고, 프롬프트를 잘 해석해서 대답해줘. 문서 참조도 충실하게 해줘."

// Config describes the retrieval-augmented chat call.
type Config struct {
	Model string `envconfig:"SEARCH_MODEL" default:"gemini-2.5-flash"`
	// RAGCorpus is the Vertex RAG corpus resource name. When empty the call is
	// grounded with Google Search instead.
	RAGCorpus   string  `envconfig:"SEARCH_RAG_CORPUS"`
	RankerModel string  `envconfig:"SEARCH_RANKER_MODEL" default:"semantic-ranker-512@latest"`
	Strictness  int     `envconfig:"SEARCH_STRICTNESS" default:"3"`
	TopN        int     `envconfig:"SEARCH_TOP_N" default:"5"`
	Temperature float32 `envconfig:"SEARCH_TEMPERATURE" default:"0.7"`
	MaxTokens   int32   `envconfig:"SEARCH_MAX_TOKENS" default:"800"`
}

// Generator is the slice of *genai.Models the client needs.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client answers an utterance from the configured document index.
type Client struct {
	gen Generator
	cfg Config
}

func New(gen Generator, cfg Config) *Client {
	return &Client{gen: gen, cfg: cfg}
}

// Query runs one grounded generation and returns the cleaned answer. Failures
// are returned as upstream errors.
func (c *Client) Query(ctx context.Context, utterance string) (string, error) {
	if c == nil || c.gen == nil {
		return "", errx.WrapUpstream(errors.New("document search is not configured"))
	}

	resp, err := c.gen.GenerateContent(ctx, c.cfg.Model, genai.Text(utterance), c.generateConfig())
	if err != nil {
		logx.Error().Err(err).Str("model", c.cfg.Model).Msg("document search failed")
		return "", errx.WrapUpstream(err)
	}
	if resp == nil {
		return "", errx.WrapUpstream(errors.New("document search returned no response"))
	}

	summary := textutil.Clean(resp.Text())
	logx.Debug().Int("chars", len(summary)).Bool("rag", c.cfg.RAGCorpus != "").Msg("document search answered")
	return summary, nil
}

func (c *Client) generateConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr(c.cfg.Temperature),
		MaxOutputTokens:   c.cfg.MaxTokens,
		Tools:             []*genai.Tool{c.tool()},
	}
}

func (c *Client) tool() *genai.Tool {
	corpus := strings.TrimSpace(c.cfg.RAGCorpus)
	if corpus == "" {
		return &genai.Tool{GoogleSearch: &genai.GoogleSearch{}}
	}

	retrieval := &genai.RAGRetrievalConfig{
		TopK: genai.Ptr(int32(max(c.cfg.TopN, 1))),
		Filter: &genai.RAGRetrievalConfigFilter{
			VectorSimilarityThreshold: genai.Ptr(SimilarityThreshold(c.cfg.Strictness)),
		},
	}
	if c.cfg.RankerModel != "" {
		retrieval.Ranking = &genai.RAGRetrievalConfigRanking{
			RankService: &genai.RAGRetrievalConfigRankingRankService{ModelName: c.cfg.RankerModel},
		}
	}
	return &genai.Tool{
		Retrieval: &genai.Retrieval{
			VertexRAGStore: &genai.VertexRAGStore{
				RAGResources:       []*genai.VertexRAGStoreRAGResource{{RAGCorpus: corpus}},
				RAGRetrievalConfig: retrieval,
			},
		},
	}
}

// SimilarityThreshold maps a 1..5 strictness level onto a minimum vector
// similarity. Out-of-range levels are clamped.
func SimilarityThreshold(strictness int) float64 {
	strictness = min(max(strictness, 1), 5)
	return 0.1 + 0.15*float64(strictness-1)
}
