package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"go.domaincheck.dev/checker/internal/config"
	"go.domaincheck.dev/checker/internal/engine"
	"go.domaincheck.dev/checker/internal/model"
)

type checkOpts struct {
	concurrency    int
	retries        int
	protocolOrder  string
	tlds           []string
	preset         string
	allTLDs        bool
	bootstrap      bool
	stream         bool
	signaturesPath string
}

func newCheckCmd(global *globalOpts) *cobra.Command {
	var opt checkOpts

	cmd := &cobra.Command{
		Use:   "check <domain|label> [<domain|label>...]",
		Short: "Check one or more domains and print JSON results",
		Long: `Checks each argument for registration status. A bare label
(no dot) is expanded against --tlds/--preset/--all-tlds; a fully
qualified name is checked as given.

Results are printed as JSON lines on stdout, one object per domain.`,
		Example: `  domaincheck check example.com
  domaincheck check --tlds com,io,dev acme
  domaincheck check --stream a.com b.com c.com`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, global, &opt, args)
		},
	}

	cmd.Flags().IntVar(&opt.concurrency, "concurrency", 0, "max simultaneous in-flight checks (0: use config/default)")
	cmd.Flags().IntVar(&opt.retries, "retries", -1, "additional attempts on transient failure, per protocol (-1: use config/default)")
	cmd.Flags().StringVar(&opt.protocolOrder, "protocol-order", "", "structured-only, textual-only, structured-then-textual, textual-then-structured")
	cmd.Flags().StringSliceVar(&opt.tlds, "tlds", nil, "candidate TLDs for bare-label expansion")
	cmd.Flags().StringVar(&opt.preset, "preset", "", "named TLD preset, e.g. startup, enterprise")
	cmd.Flags().BoolVar(&opt.allTLDs, "all-tlds", false, "expand bare labels against every known TLD")
	cmd.Flags().BoolVar(&opt.bootstrap, "bootstrap", true, "consult the dynamic endpoint registry on a static-table miss")
	cmd.Flags().BoolVar(&opt.stream, "stream", false, "print results as they complete instead of sorted to input order")
	cmd.Flags().StringVar(&opt.signaturesPath, "signatures-path", "", "TOML file of per-TLD WHOIS not-found/rate-limit signatures, extending the compiled-in table")

	return cmd
}

func runCheck(cmd *cobra.Command, global *globalOpts, opt *checkOpts, domains []string) error {
	cfg, err := global.loadConfig()
	if err != nil {
		return err
	}
	applyCheckOverrides(&cfg, cmd, opt)

	log, err := global.newLogger()
	if err != nil {
		return err
	}

	e, err := engine.New(cfg, log)
	if err != nil {
		return fmt.Errorf("building engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	enc := json.NewEncoder(cmd.OutOrStdout())

	if opt.stream {
		for res := range e.Stream(ctx, domains) {
			if err := enc.Encode(toLine(res)); err != nil {
				return err
			}
		}
		return nil
	}

	for _, res := range e.Run(ctx, domains) {
		if err := enc.Encode(toLine(res)); err != nil {
			return err
		}
	}
	return nil
}

// applyCheckOverrides layers explicitly-set flags on top of the
// file/env-derived configuration; flags not given on the command line
// defer to whatever loadConfig already produced.
func applyCheckOverrides(cfg *config.Configuration, cmd *cobra.Command, opt *checkOpts) {
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency = opt.concurrency
	}
	if cmd.Flags().Changed("retries") {
		cfg.Retries = opt.retries
	}
	if cmd.Flags().Changed("protocol-order") {
		cfg.ProtocolOrder = config.ProtocolOrder(opt.protocolOrder)
	}
	if cmd.Flags().Changed("tlds") {
		cfg.TLDs = opt.tlds
	}
	if cmd.Flags().Changed("preset") {
		cfg.Preset = opt.preset
	}
	if cmd.Flags().Changed("all-tlds") {
		cfg.AllTLDs = opt.allTLDs
	}
	if cmd.Flags().Changed("bootstrap") {
		cfg.Bootstrap = opt.bootstrap
	}
	if cmd.Flags().Changed("signatures-path") {
		cfg.SignaturesPath = opt.signaturesPath
	}
	cfg.SetDefaults()
}

// line is the JSON-lines shape printed by `check`.
type line struct {
	FQDN         string   `json:"fqdn"`
	Availability string   `json:"availability"`
	Method       string   `json:"method_used"`
	Registrar    string   `json:"registrar,omitempty"`
	CreationDate string   `json:"creation_date,omitempty"`
	ExpiryDate   string   `json:"expiry_date,omitempty"`
	UpdatedDate  string   `json:"updated_date,omitempty"`
	StatusCodes  []string `json:"status_codes,omitempty"`
	NameServers  []string `json:"name_servers,omitempty"`
	Error        string   `json:"error,omitempty"`
}

func toLine(r model.DomainResult) line {
	l := line{
		FQDN:         r.FQDN,
		Availability: string(r.Availability),
		Method:       string(r.MethodUsed),
		Registrar:    r.Registrar,
		CreationDate: r.CreationDate,
		ExpiryDate:   r.ExpiryDate,
		UpdatedDate:  r.UpdatedDate,
		StatusCodes:  r.StatusCodes,
		NameServers:  r.NameServers,
	}
	if r.Error != nil {
		l.Error = r.Error.Error()
	}
	return l
}
