package sanitizer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mandalbook/mandalbook/pkg/sanitizer"
)

func TestText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain name untouched", "Ramesh Kulkarni", "Ramesh Kulkarni"},
		{"script stripped", `Asha<script>alert("x")</script>`, "Asha"},
		{"tags stripped keeping text", "<b>Building A</b> residents", "Building A residents"},
		{"whitespace trimmed", "  Ganesh Mandal  ", "Ganesh Mandal"},
		{"img with onerror removed", `<img src=x onerror=alert(1)>Priya`, "Priya"},
		{"empty stays empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, sanitizer.Text(tt.input))
		})
	}
}

func TestNote(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bold kept", "<strong>Cash</strong> received on day 3", "<strong>Cash</strong> received on day 3"},
		{"list kept", "<ul><li>Flowers</li><li>Prasad</li></ul>", "<ul><li>Flowers</li><li>Prasad</li></ul>"},
		{"script removed", `Paid<script>steal()</script> in full`, "Paid in full"},
		{"link stripped to text", `See <a href="http://evil.example">receipt</a>`, "See receipt"},
		{"event handler removed", `<p onclick="x()">Donated via UPI</p>`, "<p>Donated via UPI</p>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, sanitizer.Note(tt.input))
		})
	}
}
