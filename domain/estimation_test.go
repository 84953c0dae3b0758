package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEstimation_Equal(t *testing.T) {
	req := require.New(t)

	req.True(NewEstimation(5).Equal(NewEstimation(5)))
	req.False(NewEstimation(5).Equal(NewEstimation(8)))
	req.True(NullEstimation().Equal(NullEstimation()))
	req.False(NullEstimation().Equal(NewEstimation(0)))
	req.True(InfiniteEstimation().Equal(NewEstimation(math.Inf(1))))
	req.False(NewEstimation(math.NaN()).Equal(NewEstimation(math.NaN())))
}

func TestEstimation_String(t *testing.T) {
	req := require.New(t)

	req.Equal("?", NullEstimation().String())
	req.Equal("Infinity", InfiniteEstimation().String())
	req.Equal("0.5", NewEstimation(0.5).String())
	req.Equal("13", NewEstimation(13).String())
}

func TestEstimation_Ptr_Is_A_Copy(t *testing.T) {
	req := require.New(t)

	req.Nil(NullEstimation().Ptr())
	req.True(EstimationFromPtr(nil).IsNull())

	e := NewEstimation(3)
	p := e.Ptr()
	*p = 40
	v, ok := e.Value()
	req.True(ok)
	req.Equal(3.0, v)
	req.True(EstimationFromPtr(p).Equal(NewEstimation(40)))
}

func TestDefaultEstimations(t *testing.T) {
	req := require.New(t)
	cards := DefaultEstimations()

	req.Len(cards, 13)
	req.True(containsEstimation(cards, InfiniteEstimation()))
	req.True(containsEstimation(cards, NullEstimation()))
	req.False(containsEstimation(cards, NewEstimation(4)))
}

func TestParseRole(t *testing.T) {
	req := require.New(t)

	role, err := ParseRole("Facilitator")
	req.NoError(err)
	req.Equal(Facilitator, role)
	req.True(role.CanVote())
	req.False(Observer.CanVote())

	_, err = ParseRole("scrum master")
	req.Error(err)
}
