package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Kolawole99/henry-capstone/models"
)

func testRoster() []*models.Agent {
	return []*models.Agent{
		{ID: "h1", Name: "HR", Description: "Human resources policies and benefits"},
		{ID: "t1", Name: "Tech Support", Description: "Internal IT and tooling"},
	}
}

func TestRouteSelectsAgentFromRoster(t *testing.T) {
	completer := &fakeCompleter{
		structuredJSON: `{"agent_id":"h1","agent_name":"hr (stale name)","confidence":0.92,"reasoning":"vacation policy is an HR topic"}`,
	}
	router := NewDispatcherRouter(&fakeDirectory{agents: testRoster()}, completer, zap.NewNop())

	decision, err := router.Route(context.Background(), models.UserQuery{Text: "What is the vacation policy?", Role: "employee"})
	require.NoError(t, err)

	assert.Equal(t, "h1", decision.AgentID)
	// The roster, not the model, is authoritative for the name.
	assert.Equal(t, "HR", decision.AgentName)
	assert.InDelta(t, 0.92, decision.Confidence, 0.001)
	assert.True(t, decision.Routed())
}

func TestRoutePromptCarriesRoster(t *testing.T) {
	completer := &fakeCompleter{
		structuredJSON: `{"agent_id":"t1","agent_name":"Tech Support","confidence":0.8,"reasoning":"it question"}`,
	}
	router := NewDispatcherRouter(&fakeDirectory{agents: testRoster()}, completer, zap.NewNop())

	_, err := router.Route(context.Background(), models.UserQuery{Text: "My laptop will not boot"})
	require.NoError(t, err)

	assert.Contains(t, completer.lastUser, "ID: h1")
	assert.Contains(t, completer.lastUser, "ID: t1")
	assert.Contains(t, completer.lastUser, "My laptop will not boot")
}

func TestRouteNoMatchIsNotAnError(t *testing.T) {
	completer := &fakeCompleter{
		structuredJSON: `{"agent_id":"","agent_name":"","confidence":0.1,"reasoning":"no agent covers cooking"}`,
	}
	router := NewDispatcherRouter(&fakeDirectory{agents: testRoster()}, completer, zap.NewNop())

	decision, err := router.Route(context.Background(), models.UserQuery{Text: "Best lasagna recipe?"})
	require.NoError(t, err)
	assert.False(t, decision.Routed())
	assert.Equal(t, "no agent covers cooking", decision.Reasoning)
}

func TestRouteUnknownAgentIsRoutingFailure(t *testing.T) {
	completer := &fakeCompleter{
		structuredJSON: `{"agent_id":"ghost","agent_name":"Ghost","confidence":0.99,"reasoning":"hallucinated"}`,
	}
	router := NewDispatcherRouter(&fakeDirectory{agents: testRoster()}, completer, zap.NewNop())

	_, err := router.Route(context.Background(), models.UserQuery{Text: "anything"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRoutingFailure)
}

func TestRouteMalformedOutputIsRoutingFailure(t *testing.T) {
	completer := &fakeCompleter{structuredErr: errors.New("decode structured output: unexpected end of JSON input")}
	router := NewDispatcherRouter(&fakeDirectory{agents: testRoster()}, completer, zap.NewNop())

	_, err := router.Route(context.Background(), models.UserQuery{Text: "anything"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRoutingFailure)
}

func TestRouteRosterLookupFailureIsRoutingFailure(t *testing.T) {
	router := NewDispatcherRouter(&fakeDirectory{listErr: errors.New("db down")}, &fakeCompleter{}, zap.NewNop())

	_, err := router.Route(context.Background(), models.UserQuery{Text: "anything"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRoutingFailure)
}
