package retrieval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCleanQuery(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "stop words and short tokens dropped",
			in:   "Construction of Flood Control Structure along the Pampanga River",
			want: "flood control structure along pampanga river",
		},
		{
			name: "capped at six terms",
			in:   "alpha bravo charlie delta echoes foxtrot golfer hotel",
			want: "alpha bravo charlie delta echoes foxtrot",
		},
		{
			name: "unicode letters count as word characters",
			in:   "Drainage in Parañaque",
			want: "drainage parañaque",
		},
		{name: "nothing meaningful", in: "in at of the", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanQuery(tt.in))
		})
	}
}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want string
	}{
		{"default query adds nothing", Request{Query: DefaultNewsQuery}, "Philippines flood control"},
		{"empty request", Request{}, "Philippines flood control"},
		{
			name: "all parts",
			req:  Request{Query: "Slope protection Bulacan", Contractor: "GED CONSTRUCTION", Location: "Bulacan"},
			want: "Philippines flood control slope protection bulacan GED CONSTRUCTION Bulacan",
		},
		{"placeholder contractor skipped", Request{Contractor: "N/A"}, "Philippines flood control"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildQuery(tt.req))
		})
	}
}

func TestBackoffDelay(t *testing.T) {
	b := DefaultBackoff()
	assert.Equal(t, time.Second, b.Delay(0))
	assert.Equal(t, 2*time.Second, b.Delay(1))
	assert.Equal(t, 4*time.Second, b.Delay(2))
	assert.Equal(t, time.Duration(0), b.Delay(-1))

	flat := Backoff{BaseDelay: time.Second, Multiplier: 0}
	assert.Equal(t, time.Second, flat.Delay(3))
}

func TestBackoffAttempts(t *testing.T) {
	assert.Equal(t, 3, DefaultBackoff().Attempts())
	assert.Equal(t, 1, Backoff{}.Attempts())
}
