package schemas

import (
	"strings"
	"testing"

	fuzz "github.com/AdaLogics/go-fuzz-headers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocator(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Locator
		wantErr bool
	}{
		{name: "bare value is css", input: "div.card > a", want: CSS("div.card > a")},
		{name: "explicit css", input: "css=#main", want: CSS("#main")},
		{name: "xpath", input: "xpath=//button[@type='submit']", want: XPath("//button[@type='submit']")},
		{name: "id is case insensitive", input: "ID=login", want: ID("login")},
		{name: "link text keeps inner spaces", input: "link= Sign in ", want: LinkText("Sign in")},
		{name: "partial link", input: "partial_link=Sign", want: PartialLinkText("Sign")},
		{name: "unknown prefix stays css", input: "a[href='x=y']", want: CSS("a[href='x=y']")},
		{name: "empty", input: "   ", wantErr: true},
		{name: "empty value", input: "name=", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLocator(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Valid())
		})
	}
}

func TestLocator_ZeroAndValid(t *testing.T) {
	var zero Locator
	assert.True(t, zero.IsZero())
	assert.False(t, zero.Valid())
	assert.Equal(t, "<nil locator>", zero.String())

	assert.False(t, Locator{Strategy: "shadow", Value: "x"}.Valid())
	assert.False(t, CSS("  ").Valid())
	assert.Equal(t, "id=login", ID("login").String())
}

func TestMarker(t *testing.T) {
	m := MarkerTest | MarkerQuarantine
	assert.True(t, m.Has(MarkerTest))
	assert.False(t, m.Has(MarkerSkip))
	assert.False(t, m.Has(MarkerTest|MarkerSkip))
	assert.Equal(t, "test|quarantine", m.String())
	assert.Equal(t, "none", Marker(0).String())
}

// FuzzParseLocator checks that any parsed locator round-trips through String.
func FuzzParseLocator(f *testing.F) {
	f.Add([]byte("css=#main"))
	f.Add([]byte("xpath=//a"))
	f.Fuzz(func(t *testing.T, data []byte) {
		consumer := fuzz.NewConsumer(data)
		raw, err := consumer.GetString()
		if err != nil {
			return
		}

		loc, err := ParseLocator(raw)
		if err != nil {
			return
		}
		require.True(t, loc.Valid(), "parsed locator must be valid: %q", raw)

		again, err := ParseLocator(loc.String())
		require.NoError(t, err)
		// A css value that itself looks like "strategy=value" re-parses under that strategy.
		if loc.Strategy == ByCSS && strings.Contains(loc.Value, "=") {
			return
		}
		assert.Equal(t, loc, again)
	})
}
