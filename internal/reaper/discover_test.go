package reaper

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/pgreap/pkg/pgreap"
)

func TestDiscover_FullMatchFilter(t *testing.T) {
	good := "cpast_api_tests_0123456789abcdef0123456789abcdef"
	client := &fakeClient{listFunc: listing(
		good,
		"cpast_api_tests_0123456789abcdef0123456789abcdef_extra",
		"xcpast_api_tests_0123456789abcdef0123456789abcdef",
		"cpast_api_tests_short",
		"other_api_tests_0123456789abcdef0123456789abcdef",
	)}

	got, err := Discover(context.Background(), client, pgreap.DefaultPattern)

	require.NoError(t, err)
	assert.Equal(t, []string{good}, got)
}

func TestDiscover_UnanchoredPatternIsAnchored(t *testing.T) {
	client := &fakeClient{listFunc: listing("tmp_1", "tmp_12", "my_tmp_1")}

	got, err := Discover(context.Background(), client, `tmp_\d`)

	require.NoError(t, err)
	assert.Equal(t, []string{"tmp_1"}, got)
}

func TestDiscover_PreservesServerOrder(t *testing.T) {
	client := &fakeClient{listFunc: listing("a_1", "a_2", "a_3")}

	got, err := Discover(context.Background(), client, `a_\d`)

	require.NoError(t, err)
	assert.Equal(t, []string{"a_1", "a_2", "a_3"}, got)
}

func TestDiscover_Errors(t *testing.T) {
	_, err := Discover(context.Background(), &fakeClient{}, "(")
	assert.True(t, errors.Is(err, pgreap.ErrInvalidConfig))

	listErr := errors.New("server gone")
	client := &fakeClient{listFunc: func(context.Context, string) ([]string, error) { return nil, listErr }}
	_, err = Discover(context.Background(), client, ".*")
	assert.True(t, errors.Is(err, listErr))
}
