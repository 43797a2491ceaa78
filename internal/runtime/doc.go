/*
Package runtime implements the instrumentation hub for a live
stream-processing graph.

# Architecture Overview

A Session observes the lifecycle of observables, subscribers and
subscriptions (subscribe/next/error/complete/unsubscribe), reconstructs the
dependency graph between active subscriptions, and streams the resulting
notifications to a remote viewer over a pluggable connection. All session
state is owned by a single event loop, so registry mutation, deck gating and
batching never race.

# Package Structure

## Session (service.go)

The Session struct is the central orchestrator that wires together:
  - Registry of observable/subscriber/subscription records
  - Plugin host fan-out (log, pause, snapshot, graph, stack-trace)
  - Pause decks gating notification delivery
  - Batcher coalescing messages for the connection
  - Inbound request routing

## Records & Graph (records.go, graph.go)

The Registry folds lifecycle events into per-entity records with bounded
value history. The GraphRegistry maintains each subscription's structural
links: sink and root sink upward toward the consumer, sources and flats
downward toward producers, with flushed counts once a subscription is torn
down.

## Deck (deck.go)

The pause/step controller for one pause plugin instance: pause, resume,
step, skip and clear over a FIFO buffer of withheld broadcasts, with a
stats stream relayed to the viewer.

## Batching & Wire Protocol (batch.go, messages.go)

Outbound messages coalesce into time-boxed batches. When a batch window
accumulates more notifications than the configured limit they collapse into
a single snapshot hint and further notifications are suppressed until a
snapshot is taken. Stale deck-stats messages are deduplicated per deck.

## Plugins (plugins.go, plugin_kinds.go)

Plugins are independent pipeline observers keyed by an externally supplied
id. Capabilities (observing, commands, snapshots, delivery gating) are
optional interfaces, not a hierarchy.

## Snapshots (snapshot.go)

Snapshot builds an immutable, id-linked projection of the whole registry at
a single logical tick.

# Sub-packages

  - config/: Session configuration with validation
  - errors/: Sentinel errors
  - ids/: ULID generation
  - jsoncodec/: JSON marshaling utilities
  - logging/: Logger interface and adapters

# Usage Example

	cfg := &rxjsspy.Config{
		ConnectionSystem: "channel",
	}

	session, err := rxjsspy.NewSession(ctx, cfg, logger, rxjsspy.SessionDependencies{})
	if err != nil {
		return err
	}
	defer session.Close()

	session.Notify(rxjsspy.Event{
		Phase: rxjsspy.PhaseBefore,
		Kind:  rxjsspy.KindSubscribe,
		Ref:   ref,
	})
*/
package runtime
