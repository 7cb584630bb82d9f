package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
)

func newLogger(lvl string) (log.Logger, error) {
	var opt level.Option
	switch lvl {
	case "debug":
		opt = level.AllowDebug()
	case "info":
		opt = level.AllowInfo()
	case "warn":
		opt = level.AllowWarn()
	case "error":
		opt = level.AllowError()
	default:
		return nil, fmt.Errorf("unknown log level %q", lvl)
	}

	l := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	l = level.NewFilter(l, opt)
	return log.With(l, "ts", log.DefaultTimestampUTC), nil
}

func cmdLookup() *cobra.Command {
	var (
		rf       ringFlags
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   "lookup [flags] key...",
		Short: "Print the owner of each key",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLogger(logLevel)
			if err != nil {
				return err
			}
			r, err := rf.Build(l)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, key := range args {
				owner, ok := r.Get(key)
				if !ok {
					owner = "<none>"
				}
				fmt.Fprintf(w, "%s\t%s\n", key, owner)
			}
			return w.Flush()
		},
	}

	rf.Register(cmd.Flags())
	cmd.Flags().StringVar(&logLevel, "log.level", "warn", "Log level (debug, info, warn, error)")
	return cmd
}

func cmdDist() *cobra.Command {
	var (
		rf       ringFlags
		logLevel string
		numKeys  int
		keySeed  int64
	)

	cmd := &cobra.Command{
		Use:   "dist",
		Short: "Print the share of random keys owned by each node",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLogger(logLevel)
			if err != nil {
				return err
			}
			r, err := rf.Build(l)
			if err != nil {
				return err
			}
			if r.KeyCount() == 0 {
				return errors.New("at least one node is required")
			}

			var (
				rnd    = rand.New(rand.NewSource(keySeed))
				counts = make(map[string]int)
				key    = make([]byte, 6)
			)
			for i := 0; i < numKeys; i++ {
				_, _ = rnd.Read(key)
				owner, _ := r.Get(fmt.Sprintf("%x", key))
				counts[owner]++
			}

			names := make([]string, 0, len(counts))
			for name := range counts {
				names = append(names, name)
			}
			sort.Strings(names)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NODE\tCONTROL POINTS\tKEYS\tSHARE")
			for _, name := range names {
				fmt.Fprintf(w, "%s\t%d\t%d\t%0.2f%%\n",
					name, len(r.Points(name)), counts[name],
					100*float64(counts[name])/float64(numKeys),
				)
			}
			if c := r.Collisions(); c > 0 {
				fmt.Fprintf(w, "\n%d control points collided; consider a larger --range\n", c)
			}
			return w.Flush()
		},
	}

	rf.Register(cmd.Flags())
	cmd.Flags().StringVar(&logLevel, "log.level", "warn", "Log level (debug, info, warn, error)")
	cmd.Flags().IntVar(&numKeys, "keys", 100_000, "Number of random keys to look up")
	cmd.Flags().Int64Var(&keySeed, "key-seed", 0, "Seed for generating random keys")
	return cmd
}

func cmdServe() *cobra.Command {
	var (
		rf         ringFlags
		logLevel   string
		listenAddr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a ring over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLogger(logLevel)
			if err != nil {
				return err
			}
			r, err := rf.Build(l)
			if err != nil {
				return err
			}

			router := mux.NewRouter()
			if _, err := NewAPI(r, router); err != nil {
				return err
			}

			lis, err := net.Listen("tcp", listenAddr)
			if err != nil {
				return fmt.Errorf("failed to listen: %w", err)
			}

			srv := &http.Server{Handler: router}
			errCh := make(chan error, 1)
			go func() {
				level.Info(l).Log("msg", "serving ring", "addr", lis.Addr())
				errCh <- srv.Serve(lis)
			}()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			level.Info(l).Log("msg", "shutting down")
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	rf.Register(cmd.Flags())
	cmd.Flags().StringVar(&logLevel, "log.level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&listenAddr, "listen-addr", "127.0.0.1:8080", "Address to serve the HTTP API on")
	return cmd
}
