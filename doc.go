// Package rxjsspy is an instrumentation hub for live stream-processing
// graphs. A Session ingests raw lifecycle events (subscribe, next, error,
// complete, unsubscribe), folds them into a registry of observables,
// subscribers and subscriptions, reconstructs the structural graph between
// active subscriptions, and streams the result to a remote devtools viewer
// over a pluggable connection transport.
//
// The viewer talks back over the same connection: it can attach log and
// pause plugins, drive pause decks (pause, resume, step, skip, clear), and
// request point-in-time snapshots of the whole registry. Outbound traffic is
// coalesced into time-boxed batches; under bursty volume a batch collapses
// into a single snapshot hint and notifications stay suppressed until the
// viewer takes a snapshot.
//
// # Connections
//
// Six connection transports ship out of the box:
//   - channel: In-memory Go channels for testing
//   - websocket: Direct connection to a devtools viewer
//   - nats: High-performance messaging
//   - kafka: High-throughput streaming with consumer groups
//   - rabbitmq: AMQP-based durable queues
//   - aws: AWS SNS/SQS with LocalStack support
//
// Import the ones you use so they register themselves:
//
//	import _ "github.com/calvarezmx/rxjs-spy/transport/channel"
//
// # Quick start
//
//	cfg := &rxjsspy.Config{ConnectionSystem: "channel"}
//	logger := rxjsspy.NewSlogServiceLogger(slog.Default())
//
//	session, err := rxjsspy.NewSession(ctx, cfg, logger, rxjsspy.SessionDependencies{})
//	if err != nil {
//		return err
//	}
//	defer session.Close()
//
//	session.Notify(rxjsspy.Event{
//		Phase: rxjsspy.PhaseBefore,
//		Kind:  rxjsspy.KindSubscribe,
//		Ref:   rxjsspy.SubscriptionRef{Observable: obs, Subscriber: sub, Subscription: subn},
//	})
//
// When you need more control, SessionDependencies exposes well-scoped hooks:
// bring your own Connection, override individual Collaborators (identity,
// path inference, value serialization, stack traces), or supply a Prometheus
// registerer for the hub metrics.
package rxjsspy
