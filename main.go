package main

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"tarx/internal/extract"
	"tarx/internal/log"
	"tarx/internal/password"
)

var version = "dev"

type options struct {
	password     string
	typePassword bool
	list         bool
	output       string
	detect       bool
	verbose      bool
}

func (o *options) addFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&o.password, "password", "p", "", "Password of the encrypted archive file to be extracted")
	fs.BoolVarP(&o.typePassword, "type-password", "t", false, "Interactively enter the password of the encrypted archive file to be extracted")
	fs.BoolVarP(&o.list, "list", "l", false, "List the contents of the archive instead of extracting it")
	fs.StringVarP(&o.output, "output", "o", "", "Directory in which the new extraction directory is created (default: current directory)")
	fs.BoolVar(&o.detect, "detect", false, "Identify the format from the file content when the extension is not recognized")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "Log debug messages")
}

func newRootCommand(stdin io.Reader, stdout io.Writer) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "tarx [flags] <archive_file>",
		Short: "Extract a .7z, .rar, .tar, .tar.bz2, .tar.gz, .tar.xz, or .zip file to a new directory",
		Long: `Extract an archive to a new directory named after the archive without its
extension, created in the current directory (or --output).

The format is chosen from the file extension:

	.7z  .rar  .zip                      (password protection supported)
	.tar  .tar.gz .tgz  .tar.bz2 .tbz2 .tbz  .tar.xz .txz
	.tar.zst .tzst  .tar.lz4  .tar.br  .tar.lzma .tlz
	.gz  .bz2  .xz  .zst                 (single compressed file)

.rar and bzip2 archives are decoded entirely in memory.`,
		Version:       version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.SetVerbose(opts.verbose)
			req := extract.Request{
				Path: args[0],
				Password: password.Request{
					Value:       opts.password,
					Set:         cmd.Flags().Changed("password"),
					Interactive: opts.typePassword,
					In:          stdin,
					Out:         stdout,
				},
				List:   opts.list,
				Out:    stdout,
				Parent: opts.output,
				Detect: opts.detect,
			}
			res, err := extract.Run(cmd.Context(), req)
			if err != nil {
				return err
			}
			if !opts.list {
				log.WithField("format", res.Format.Type.String()).Infof("Extracted %d entries to %s", res.Entries, res.Directory)
				if res.Skipped > 0 {
					log.Warnf("Skipped %d entries", res.Skipped)
				}
			}
			return nil
		},
	}
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	opts.addFlags(cmd.Flags())
	return cmd
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) int {
	cmd := newRootCommand(stdin, stdout)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		log.Errorf("%v", err)
		return 1
	}
	return 0
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	logrus.SetOutput(os.Stderr)
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout))
}
