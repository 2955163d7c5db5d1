package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/spf13/cobra"

	"github.com/ironsheep/box-measure/internal/config"
	"github.com/ironsheep/box-measure/internal/imaging"
	"github.com/ironsheep/box-measure/internal/measure"
)

func measureCmd() *cobra.Command {
	var (
		markerWidth  float64
		strategy     string
		backend      string
		annotatePath string
		edgesPath    string
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "measure <image>",
		Short: "Measure the box in a photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := *cfg
			if cmd.Flags().Changed("marker-width") {
				c.MarkerWidthCM = markerWidth
			}
			if strategy != "" {
				c.MarkerStrategy = strategy
			}
			if backend != "" {
				c.DetectionBackend = backend
			}

			m, err := config.NewMeasurer(&c, logger)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			analysis, err := m.Inspect(data, c.MarkerWidthCM)
			if err != nil {
				return err
			}

			if edgesPath != "" {
				edges := imaging.Preprocess(analysis.Image, imaging.DefaultEdgeOptions())
				if err := imgio.Save(edgesPath, edges, imgio.PNGEncoder()); err != nil {
					return fmt.Errorf("failed to save edge map: %w", err)
				}
			}
			if annotatePath != "" {
				if err := imgio.Save(annotatePath, measure.Annotate(analysis), imgio.PNGEncoder()); err != nil {
					return fmt.Errorf("failed to save annotated image: %w", err)
				}
			}

			if analysis.Err != nil {
				return analysis.Err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(analysis.Result)
			}

			r := analysis.Result
			fmt.Fprintf(out, "length: %.1f cm\n", r.LengthCM)
			fmt.Fprintf(out, "width:  %.1f cm\n", r.WidthCM)
			fmt.Fprintf(out, "height: %.1f cm (estimated)\n", r.HeightCM)
			fmt.Fprintf(out, "scale:  %.2f px/cm from a %.1f cm marker\n", r.Details.PixelsPerCM, r.Details.MarkerWidthCM)
			return nil
		},
	}

	cmd.Flags().Float64Var(&markerWidth, "marker-width", measure.DefaultMarkerWidthCM, "real width of the reference marker in cm")
	cmd.Flags().StringVar(&strategy, "strategy", "", "marker strategy: window or smallest (default from MARKER_STRATEGY)")
	cmd.Flags().StringVar(&backend, "backend", "", "contour backend: native or opencv (default from DETECTION_BACKEND)")
	cmd.Flags().StringVar(&annotatePath, "annotate", "", "write an annotated PNG to this path")
	cmd.Flags().StringVar(&edgesPath, "edges", "", "write the edge map PNG to this path")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	return cmd
}
