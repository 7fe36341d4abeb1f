package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/gin-gonic/gin/binding"
	"github.com/spf13/cobra"

	"github.com/OldStager01/getaround-pricing/internal/prediction"
	"github.com/OldStager01/getaround-pricing/pkg/models"
)

func newPredictCmd(opts *rootOptions) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the daily price of one car described in a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			req, err := readRequest(input, cmd.InOrStdin())
			if err != nil {
				return err
			}

			svcCfg := prediction.Config{}
			p, err := loadPipeline(cfg)
			if err != nil {
				svcCfg.LoadErr = err
			} else {
				svcCfg.Predictor = p
			}

			resp := prediction.NewService(svcCfg).Predict(cmd.Context(), req.ToFeatures())

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "-", `JSON request file, "-" for stdin`)
	return cmd
}

// readRequest decodes and validates a request the same way POST /predict does.
func readRequest(path string, stdin io.Reader) (models.PredictionRequest, error) {
	var req models.PredictionRequest

	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return req, fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return req, fmt.Errorf("failed to decode input: %w", err)
	}
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		return req, fmt.Errorf("invalid input: %w", err)
	}
	return req, nil
}
