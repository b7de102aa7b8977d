// Package cli implements traccarctl: a command-line front end over the session store and
// the Traccar API client.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"traccar-client/internal/audit"
	"traccar-client/internal/config"
	"traccar-client/internal/output"
	"traccar-client/internal/session"
	"traccar-client/internal/storage"
	"traccar-client/internal/telemetry"
	telemetryotel "traccar-client/internal/telemetry/otel"
	"traccar-client/internal/telemetry/producer"
	"traccar-client/internal/traccar"
)

// App is one CLI invocation: a loaded session, an API client bound to it and an output printer.
type App struct {
	Session *session.Store
	Client  *traccar.Client

	out    *output.Printer
	stderr io.Writer
	now    func() time.Time

	closers []func(context.Context) error
}

// New builds an App around an opened session. The client reads its token from sess and signs
// it out on 401.
func New(sess *session.Store, opts traccar.Options, emitter telemetry.EventEmitter, stdout, stderr io.Writer, format string) *App {
	a := &App{
		Session: sess,
		out:     &output.Printer{W: stdout, Format: format},
		stderr:  stderr,
		now:     time.Now,
	}
	clientOpts := []traccar.Option{traccar.WithRequestHook(setUserAgent)}
	if emitter != nil {
		clientOpts = append(clientOpts, traccar.WithEventEmitter(emitter))
	}
	a.Client = traccar.New(opts, sess, sess, newNavigator(stderr), clientOpts...)
	return a
}

// userAgent identifies the CLI to the proxy.
const userAgent = "traccarctl"

func setUserAgent(req *http.Request) error {
	req.Header.Set("User-Agent", userAgent)
	return nil
}

// Bootstrap wires telemetry, storage and the session from cfg. The caller must Close the App.
func Bootstrap(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer, format string) (*App, error) {
	var closers []func(context.Context) error
	fail := func(err error) (*App, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i](ctx)
		}
		return nil, err
	}

	providers, err := telemetryotel.NewProviders(ctx, telemetryotel.Config{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: cfg.ServiceName,
		Insecure:    cfg.OTLPInsecure,
	})
	if err != nil {
		return fail(fmt.Errorf("telemetry: %w", err))
	}
	providers.SetGlobal()
	closers = append(closers, providers.Shutdown)

	emitters := telemetry.Multi{telemetryotel.NewEventEmitter(providers.LoggerProvider)}
	if p := producer.NewKafkaProducer(cfg.TelemetryKafkaBrokersList(), cfg.TelemetryKafkaTopic); p != nil {
		emitters = append(emitters, p)
		closers = append(closers, func(context.Context) error { return p.Close() })
	}
	// Pending emits must finish before the exporters close.
	closers = append(closers, func(ctx context.Context) error {
		drainCtx, cancel := context.WithTimeout(ctx, telemetry.ShutdownDrainDuration)
		defer cancel()
		return telemetry.Drain(drainCtx)
	})

	st, err := storage.Open(ctx, storage.Options{
		Backend:     cfg.SessionStore,
		BoltPath:    cfg.SessionBoltPath,
		RedisURL:    cfg.RedisURL,
		RedisPrefix: cfg.SessionRedisPrefix,
		DatabaseURL: cfg.DatabaseURL,
		Namespace:   cfg.SessionNamespace,
		SealKey:     cfg.SessionSealKey,
	})
	if err != nil {
		return fail(err)
	}
	closers = append(closers, func(context.Context) error { return st.Close() })

	sess, err := session.Open(ctx, st, cfg.DefaultServer)
	if err != nil {
		return fail(err)
	}
	detach := audit.NewLogger(emitters).Attach(sess)
	closers = append(closers, func(context.Context) error { detach(); return nil })

	a := New(sess, traccar.Options{
		BaseURL:     cfg.APIURL,
		Timeout:     cfg.RequestTimeout(),
		ChatTimeout: cfg.ChatRequestTimeout(),
	}, emitters, stdout, stderr, format)
	a.closers = closers
	return a, nil
}

// Close releases everything Bootstrap opened, in reverse order.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		log.Printf("cli: shutdown: %v", err)
		return err
	}
	return nil
}
