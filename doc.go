/*
Package leadflow drives scripted sales-qualification conversations.

A flow is a declarative list of steps loaded from YAML or JSON. Message steps
show text and move on, choice steps wait for the participant to pick a numbered
option, and action steps call an external capability such as an AI-written
recommendation or a plan comparison image. Every participant is a lead whose
position, answers and history are persisted after each message.

# Concept

Each inbound message is one turn. The engine loads or creates the lead, records
the message, resolves it against the step the lead was waiting on and keeps
walking the flow until it needs input again or reaches the end. The whole turn
is committed atomically under a per-lead lock, so concurrent messages from the
same participant behave as if they arrived one after the other.

# Usage

	def, err := flow.Load("flow.yaml")
	if err != nil {
		log.Fatal(err)
	}

	eng, err := leadflow.New(def, nil,
		leadflow.WithDispatcher(actions.NewDispatcher()),
		leadflow.WithPresenter(domain.Presenter{Name: "Joana"}),
	)
	if err != nil {
		log.Fatal(err)
	}

	resp, err := eng.Handle(ctx, leadflow.Inbound{ChannelID: "5511999999999", Text: "oi"})

The leadflow command wraps the same engine in an HTTP webhook server, an MCP
server, a terminal chat and a few maintenance commands. See cmd/leadflow.
Flows can also be built in Go with package dsl.
*/
package leadflow
