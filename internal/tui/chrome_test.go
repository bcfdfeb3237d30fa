package tui

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roelfdiedericks/inappbrowser/internal/surface"
)

func TestTitleAndLoading(t *testing.T) {
	var out bytes.Buffer
	c := New(Options{Out: &out})

	c.SetLoading(true)
	c.SetTitle("Example Domain")

	view := c.View()
	assert.Contains(t, view, "Example Domain")
	assert.Contains(t, view, "loading")

	c.SetLoading(false)
	assert.NotContains(t, c.View(), "loading")
	assert.NotEmpty(t, out.String())
}

func TestRedirectInterface(t *testing.T) {
	c := New(Options{Out: &bytes.Buffer{}})

	c.UpdateInterface(surface.Metadata{
		StoreTitle:     "Loja",
		Cashback:       "5% de volta",
		CouponCode:     "SAVE10",
		MobileFriendly: "true",
	})

	view := c.View()
	assert.Contains(t, view, "LOJA")
	assert.Contains(t, view, "5% de volta")
	assert.Contains(t, view, "SAVE10")
	assert.Equal(t, "SAVE10", c.Coupon())
}

func TestRedirectInterfaceWithoutCoupon(t *testing.T) {
	c := New(Options{Out: &bytes.Buffer{}})
	c.UpdateInterface(surface.Metadata{StoreTitle: "Loja"})

	assert.NotContains(t, c.View(), "coupon")
	assert.Empty(t, c.Coupon())
}

func TestLoadErrorClosesWhenNotInteractive(t *testing.T) {
	c := New(Options{Out: &bytes.Buffer{}})

	var decided []bool
	c.PromptLoadError("https://x.test/", -2, "net::ERR_NAME_NOT_RESOLVED", func(retry bool) {
		decided = append(decided, retry)
	})

	assert.Equal(t, []bool{false}, decided)
	assert.Contains(t, c.View(), "ERR_NAME_NOT_RESOLVED")
}

func TestLoadErrorAsksWhenInteractive(t *testing.T) {
	tests := []struct {
		name   string
		answer bool
		err    error
		want   bool
	}{
		{"retry", true, nil, true},
		{"close", false, nil, false},
		{"aborted", true, errors.New("user aborted"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var asked string
			c := New(Options{
				Out:         &bytes.Buffer{},
				Interactive: true,
				Confirm: func(title, description string) (bool, error) {
					asked = description
					return tt.answer, tt.err
				},
			})

			got := make(chan bool, 1)
			c.PromptLoadError("https://x.test/", -8, "timed out", func(retry bool) { got <- retry })

			select {
			case retry := <-got:
				assert.Equal(t, tt.want, retry)
			case <-time.After(2 * time.Second):
				require.FailNow(t, "decide was not called")
			}
			assert.Contains(t, asked, "https://x.test/")
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefghij", 5))
}
