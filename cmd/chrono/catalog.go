package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/vango-dev/chrono/internal/config"
	"github.com/vango-dev/chrono/internal/errors"
	"github.com/vango-dev/chrono/pkg/catalog"
	"github.com/vango-dev/chrono/pkg/uistore"
	"github.com/vango-dev/chrono/pkg/urlparam"
)

// loadConfig reads the config at path, or ./chrono.json when path is empty.
// A missing default file means defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	cfg, err := config.Load(".")
	if err != nil {
		if stderrors.Is(err, errors.New("E141")) {
			return config.New(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// catalogSource picks the catalog source named by cfg.
func catalogSource(cfg *config.Config) (catalog.Source, error) {
	switch cfg.Catalog.Source {
	case "", config.SourceBuiltin:
		return catalog.Embedded, nil
	case config.SourceFile:
		return catalog.FileSource{Path: cfg.CatalogPath()}, nil
	case config.SourceS3:
		return catalog.S3Source{
			Client: newS3Client(cfg.Catalog),
			Bucket: cfg.Catalog.Bucket,
			Key:    cfg.Catalog.Key,
		}, nil
	}
	return nil, errors.New("E123").WithFields(cfg.Catalog.Source)
}

// newS3Client builds an S3 client from the catalog settings. Credentials come
// from the standard AWS environment variables; without them requests are
// anonymous, which suits public buckets.
func newS3Client(c config.CatalogConfig) *s3.Client {
	opts := s3.Options{
		Region:      c.Region,
		Credentials: envCredentials(),
	}
	if c.Endpoint != "" {
		opts.BaseEndpoint = aws.String(c.Endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts)
}

func envCredentials() aws.CredentialsProvider {
	key := os.Getenv("AWS_ACCESS_KEY_ID")
	secret := os.Getenv("AWS_SECRET_ACCESS_KEY")
	if key == "" || secret == "" {
		return aws.AnonymousCredentials{}
	}
	token := os.Getenv("AWS_SESSION_TOKEN")
	return aws.NewCredentialsCache(aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		return aws.Credentials{
			AccessKeyID:     key,
			SecretAccessKey: secret,
			SessionToken:    token,
			Source:          "environment",
		}, nil
	}))
}

func catalogCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the product catalog",
	}
	cmd.AddCommand(
		catalogListCmd(configPath),
		catalogValidateCmd(),
		catalogExportCmd(configPath),
	)
	return cmd
}

// loadCatalog loads the catalog the config points at.
func loadCatalog(ctx context.Context, configPath string) (*catalog.Catalog, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	src, err := catalogSource(cfg)
	if err != nil {
		return nil, err
	}
	return src.Load(ctx)
}

func catalogListCmd(configPath *string) *cobra.Command {
	var section string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products",
		Long: `List the products of the configured catalog.

Examples:
  chrono catalog list
  chrono catalog list --section=women`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sec := catalog.Section(section)
			if sec != "" && !sec.Valid() {
				return errors.New("E061").WithDetail("unknown section " + section).WithFields("section")
			}
			cat, err := loadCatalog(cmd.Context(), *configPath)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tPRICE\tSECTION\tLINK")
			for _, p := range cat.List(sec) {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					p.ID, p.Name, uistore.FormatPrice(p.UnitPrice()), p.Section, urlparam.ProductRoute(p))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&section, "section", "s", "", "Only list men or women")

	return cmd
}

func catalogValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a catalog YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.FileSource{Path: args[0]}.Load(cmd.Context())
			if err != nil {
				return err
			}
			var unpriced int
			for _, p := range cat.Products() {
				if p.UnitPrice() == 0 {
					unpriced++
				}
			}
			success("%s: %d products", args[0], cat.Len())
			if unpriced > 0 {
				warn("%d products have no usable price and will sell for 0", unpriced)
			}
			return nil
		},
	}
}

func catalogExportCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write the configured catalog as YAML to stdout",
		Long: `Write the configured catalog as YAML.

Exporting the built-in catalog gives a starting point for a custom file:
  chrono catalog export > catalog.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := loadCatalog(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			return catalog.Encode(cmd.OutOrStdout(), cat)
		},
	}
}
