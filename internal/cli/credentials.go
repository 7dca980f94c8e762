package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Backland-Labs/hexflow/internal/credentials"
	"github.com/Backland-Labs/hexflow/internal/output"
)

func newCredentialsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage named credential blocks",
		Long: `Manage named credential blocks stored in the credentials file
(default ~/.hexflow/credentials.yaml, written with 0600 permissions).`,
	}

	cmd.AddCommand(newCredentialsSaveCommand(a), newCredentialsListCommand(a))
	return cmd
}

func newCredentialsSaveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "save <name>",
		Short: "Save the --domain and --token flags as a named block",
		Example: `  hexflow credentials save prod --domain acme.hex.tech --token <token>
  HEX_TOKEN=<token> hexflow credentials save default`,
		Args: cobra.ExactArgs(1),
		RunE: a.action(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			domain := a.cfg.Domain
			if a.opts.domain != "" {
				domain = a.opts.domain
			}
			token := a.cfg.Token
			if a.opts.token != "" {
				token = a.opts.token
			}

			creds, err := credentials.New(domain, token)
			if err != nil {
				return err
			}

			path := a.credentialsFile()
			store, err := credentials.LoadStore(path)
			if err != nil {
				return err
			}
			if err := store.Put(args[0], creds); err != nil {
				return err
			}
			if err := store.Save(path); err != nil {
				return err
			}

			if a.format == output.FormatJSON {
				return a.printer.JSON(map[string]any{"name": args[0], "domain": creds.Domain(), "path": path})
			}
			a.printer.Success("Saved credentials block %q for %s to %s", args[0], creds.Domain(), path)
			return nil
		}),
	}
}

type blockSummary struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

func newCredentialsListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved credential blocks",
		Args:  cobra.NoArgs,
		RunE: a.action(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			path := a.credentialsFile()
			store, err := credentials.LoadStore(path)
			if err != nil {
				return err
			}

			blocks := make([]blockSummary, 0)
			for _, name := range store.Names() {
				domain, _ := store.Domain(name)
				blocks = append(blocks, blockSummary{Name: name, Domain: domain})
			}

			if a.format == output.FormatJSON {
				return a.printer.JSON(blocks)
			}
			if len(blocks) == 0 {
				a.printer.Info("No credentials blocks in %s", path)
				return nil
			}
			for _, b := range blocks {
				a.printer.Println(fmt.Sprintf("%s\t%s", b.Name, b.Domain))
			}
			return nil
		}),
	}
}
