package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"fibertracts/pkg/config"
	"fibertracts/pkg/logging"
	"fibertracts/pkg/session"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          "fibertracts",
		Short:        "Render, edit and export diffusion tractography fiber sets",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				l := logrus.New()
				l.SetLevel(logrus.DebugLevel)
				logging.SetLogger(l)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newRenderCmd(&verbose), newInitConfigCmd())
	return root
}

func newRenderCmd(verbose *bool) *cobra.Command {
	var (
		configPath     string
		outputDir      string
		representation string
		colorMode      string
		axis           string
		ratio          float64
		edits          []string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Generate a phantom tract set and write snapshots, STL and scene",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}

			// Command line flags override the configuration file
			flags := cmd.Flags()
			if flags.Changed("output") {
				cfg.Output.Directory = outputDir
			}
			if flags.Changed("representation") {
				cfg.Display.Representation = representation
			}
			if flags.Changed("color-mode") {
				cfg.Display.ColorMode = colorMode
			}
			if flags.Changed("axis") {
				cfg.Display.Axis = axis
			}
			if flags.Changed("ratio") {
				cfg.Processing.SubsamplingRatio = ratio
			}
			if cfg.Output.Verbose && !*verbose {
				l := logrus.New()
				l.SetLevel(logrus.InfoLevel)
				logging.SetLogger(l)
			}

			params := &session.Params{Config: cfg}
			for _, e := range edits {
				edit, err := session.ParseEdit(e)
				if err != nil {
					return err
				}
				params.Edits = append(params.Edits, edit)
			}

			fmt.Println("================================")
			fmt.Println("FIBER TRACT VISUALIZATION AND EDITING")
			fmt.Println("================================")

			s := session.NewSession(params)
			startTime := time.Now()
			if err := s.Process(); err != nil {
				return fmt.Errorf("processing failed: %w", err)
			}
			processingTime := time.Since(startTime)

			metrics := s.GetMetrics()
			fmt.Printf("\nProcessing completed successfully in %.2f seconds!\n", processingTime.Seconds())
			fmt.Printf("Output saved to: %s\n\n", cfg.Output.Directory)

			fmt.Printf("Summary Metrics:\n")
			fmt.Printf("================\n")
			fmt.Printf("Fibers: %d total, %d displayed, %d selected\n",
				metrics.TotalFibers, metrics.ActiveFibers, metrics.SelectedFibers)
			fmt.Printf("Fractional Anisotropy: %.3f ± %.3f\n", metrics.MeanFA, metrics.StdDevFA)
			fmt.Printf("Fiber Length: %.2f ± %.2f\n", metrics.MeanLength, metrics.StdDevLength)

			fmt.Println("\nFiles written:")
			for _, f := range s.OutputFiles() {
				fmt.Printf("- %s\n", f)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "fibertracts.yaml", "Configuration file")
	flags.StringVarP(&outputDir, "output", "o", "output", "Output directory")
	flags.StringVar(&representation, "representation", "tube", "Representation: line, tube, or glyph")
	flags.StringVar(&colorMode, "color-mode", "MeanFiberOrientation", "Colour mode of the representation")
	flags.StringVar(&axis, "axis", "z", "Viewing axis of the main snapshot")
	flags.Float64Var(&ratio, "ratio", 1, "Subsampling ratio in (0, 1]")
	flags.StringArrayVar(&edits, "edit", nil, "Editor key press as key@x,y, e.g. s@120,80 (repeatable)")
	return cmd
}

func newInitConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config [path]",
		Short: "Write a configuration file with default values",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "fibertracts.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.CreateDefaultConfigFile(path); err != nil {
				return err
			}
			fmt.Printf("Default configuration written to: %s\n", path)
			return nil
		},
	}
}
