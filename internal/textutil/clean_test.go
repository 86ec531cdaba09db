package textutil

import "testing"

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "bold markers", in: "**공연** 요약 **끝**", want: "공연 요약 끝"},
		{name: "escaped newlines", in: `첫째 줄\n둘째 줄\n`, want: "첫째 줄\n둘째 줄"},
		{name: "trim", in: "  \n 안녕하세요 \t", want: "안녕하세요"},
		{name: "mixed", in: `  **제목**\n\n본문  `, want: "제목\n\n본문"},
		{name: "single asterisk kept", in: "5 * 3", want: "5 * 3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.in); got != tt.want {
				t.Fatalf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanRemovesEveryMarker(t *testing.T) {
	got := Clean(`****a**\n**b****`)
	if got != "a\nb" {
		t.Fatalf("got %q", got)
	}
}
