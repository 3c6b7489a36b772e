package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Gobusters/ectologger"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Ramsey-B/clover/config"
	pkgerrors "github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/input"
	"github.com/Ramsey-B/clover/pkg/merging"
	"github.com/Ramsey-B/clover/pkg/models"
)

type mergeFlags struct {
	requestFile string
	sourceAFile string
	sourceBFile string
	threshold   float64
	distance    float64
	primary     string
	output      string
	pretty      bool
}

func newMergeCommand() *cobra.Command {
	flags := &mergeFlags{}

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge record files offline and print the result as JSON",
		Example: `  clover merge --request request.yaml
  clover merge --source-a maps.json --source-b reviews.json --threshold 0.8 --pretty`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(envFiles...)
			if err != nil {
				return err
			}

			req, err := flags.request(cmd)
			if err != nil {
				return err
			}

			resp, err := runMerge(cmd, cfg, req)
			if err != nil {
				return err
			}

			if flags.output == "" {
				return encodeResult(cmd.OutOrStdout(), resp, flags.pretty)
			}
			return writeResult(flags.output, resp, flags.pretty)
		},
	}

	cmd.Flags().StringVar(&flags.requestFile, "request", "", "JSON or YAML file holding a full merge request")
	cmd.Flags().StringVar(&flags.sourceAFile, "source-a", "", "JSON or YAML file of source_a records")
	cmd.Flags().StringVar(&flags.sourceBFile, "source-b", "", "JSON or YAML file of source_b records")
	cmd.Flags().Float64Var(&flags.threshold, "threshold", 0, "match threshold in [0,1] (default from MATCH_THRESHOLD)")
	cmd.Flags().Float64Var(&flags.distance, "distance", 0, "distance threshold in meters (default from DISTANCE_THRESHOLD_METERS)")
	cmd.Flags().StringVar(&flags.primary, "primary", "", "primary source, source_a or source_b (default from PRIMARY_SOURCE)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "write the result to a file instead of stdout")
	cmd.Flags().BoolVar(&flags.pretty, "pretty", false, "indent the JSON output")
	cmd.MarkFlagsMutuallyExclusive("request", "source-a")
	cmd.MarkFlagsMutuallyExclusive("request", "source-b")
	cmd.MarkFlagsRequiredTogether("source-a", "source-b")

	return cmd
}

// request builds the merge request from either --request or the two --source files.
// Flags that were set explicitly override values in the request file.
func (f *mergeFlags) request(cmd *cobra.Command) (*models.MergeRequest, error) {
	var req *models.MergeRequest
	switch {
	case f.requestFile != "":
		loaded, err := input.LoadRequest(f.requestFile)
		if err != nil {
			return nil, err
		}
		req = loaded
	case f.sourceAFile != "":
		recordsA, err := input.LoadRecords(f.sourceAFile)
		if err != nil {
			return nil, err
		}
		recordsB, err := input.LoadRecords(f.sourceBFile)
		if err != nil {
			return nil, err
		}
		req = &models.MergeRequest{SourceARecords: recordsA, SourceBRecords: recordsB}
	default:
		return nil, errors.New("either --request or --source-a and --source-b is required")
	}

	if cmd.Flags().Changed("threshold") {
		req.MatchThreshold = &f.threshold
	}
	if cmd.Flags().Changed("distance") {
		req.DistanceThresholdMeters = &f.distance
	}
	if cmd.Flags().Changed("primary") {
		req.PrimarySource = models.Source(f.primary)
	}
	return req, nil
}

func runMerge(cmd *cobra.Command, cfg config.Config, req *models.MergeRequest) (*models.MergeResponse, error) {
	// the offline command keeps stdout for the result, so engine logs are discarded
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	engine := merging.NewEngine(logger, cfg.MergeDefaults())

	resp, err := engine.Merge(cmd.Context(), req)
	if err != nil {
		httpErr := pkgerrors.ToHTTPError(err)
		return nil, fmt.Errorf("%s: %s", pkgerrors.Code(err), httpErr.Error())
	}
	return resp, nil
}

func encodeResult(out io.Writer, resp *models.MergeResponse, pretty bool) error {
	enc := json.NewEncoder(out)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(resp)
}

// writeResult writes resp to a temp file beside path and renames it into place, so path is
// either untouched or complete.
func writeResult(path string, resp *models.MergeResponse, pretty bool) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()

	if err = encodeResult(f, resp, pretty); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "failed to write %s", path)
	}
	if err = f.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %s", f.Name())
	}
	if err = os.Rename(f.Name(), path); err != nil {
		return errors.Wrapf(err, "failed to move result into %s", path)
	}
	return nil
}
