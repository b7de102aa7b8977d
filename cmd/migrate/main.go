// migrate installs or removes the client_storage table behind SESSION_STORE=postgres and
// reports what the configured SESSION_NAMESPACE holds.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"traccar-client/internal/config"
	"traccar-client/internal/db"
	"traccar-client/internal/db/migrate"
	"traccar-client/internal/storage"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	status := flag.Bool("status", false, "Print the installed schema version and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is not set; migrations only apply to SESSION_STORE=postgres")
		os.Exit(1)
	}

	var report migrate.Report
	if *status {
		report, err = migrate.Status(cfg.DatabaseURL)
	} else {
		dir, parseErr := migrate.ParseDirection(*direction)
		if parseErr != nil {
			fmt.Fprintln(os.Stderr, "migrate:", parseErr)
			os.Exit(2)
		}
		report, err = migrate.Apply(cfg.DatabaseURL, dir)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
	switch {
	case *status:
		fmt.Println(report)
	case report.Changed:
		fmt.Printf("%s (%s applied)\n", report, *direction)
	default:
		fmt.Printf("%s (already %s)\n", report, *direction)
	}

	if report.Version == 0 || report.Dirty {
		return
	}
	if err := describeNamespace(cfg.DatabaseURL, cfg.SessionNamespace); err != nil {
		fmt.Fprintln(os.Stderr, "namespace:", err)
		os.Exit(1)
	}
}

// describeNamespace prints the session keys stored under namespace.
func describeNamespace(dsn, namespace string) error {
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	st := storage.NewPostgresStorage(conn, namespace)
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	keys, err := st.Keys(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		fmt.Printf("namespace %q: empty\n", st.Namespace())
		return nil
	}
	fmt.Printf("namespace %q: %s\n", st.Namespace(), strings.Join(keys, ", "))
	return nil
}
