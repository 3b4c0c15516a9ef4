package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfoString(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want string
	}{
		{name: "no revision", info: Info{Version: "dev"}, want: "dev"},
		{name: "short revision", info: Info{Version: "v1.0.0", Revision: "abc"}, want: "v1.0.0 (abc)"},
		{name: "long revision", info: Info{Version: "v1.0.0", Revision: "0123456789abcdef"}, want: "v1.0.0 (0123456)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.info.String())
		})
	}
}

func TestGet(t *testing.T) {
	info := Get()
	assert.Equal(t, Version, info.Version)
	assert.NotEmpty(t, info.GoVersion)
}
