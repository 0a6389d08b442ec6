package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/openpbs/pbssched/pkg/config"
	"github.com/openpbs/pbssched/pkg/fairshare"
	"github.com/openpbs/pbssched/pkg/log"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "pbsfs",
	Short:   "Inspect and adjust the fairshare usage tree",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("pbsfs version %s (%s)\n", Version, Commit))
	rootCmd.PersistentFlags().String("resource-group", "", "Resource group file defining the fairshare tree shape")
	rootCmd.PersistentFlags().String("usage-file", "", "Usage file holding each entity's accumulated usage")
	rootCmd.PersistentFlags().Int("unknown-shares", 10, "Shares given to an entity absent from the resource group file")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(decayCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(setCmd)
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	log.Init(log.Config{Level: log.Level(level)})
}

// loadTree reads the resource-group file (if one is configured) and
// layers the usage file's accumulated usage on top of the resulting
// shape, the same two-file split pbs_sched itself reads at cycle start.
func loadTree(cmd *cobra.Command) (*fairshare.Tree, string, error) {
	groupPath, _ := cmd.Flags().GetString("resource-group")
	usagePath, _ := cmd.Flags().GetString("usage-file")
	unknownShares, _ := cmd.Flags().GetInt("unknown-shares")

	tree := fairshare.NewTree()
	if groupPath != "" {
		f, err := os.Open(groupPath)
		if err != nil {
			return nil, "", fmt.Errorf("open resource group file: %w", err)
		}
		defer f.Close()
		tree, err = config.ParseResourceGroup(f)
		if err != nil {
			return nil, "", fmt.Errorf("parse resource group file: %w", err)
		}
	}

	if usagePath != "" {
		if err := fairshare.ReadUsage(usagePath, tree, unknownShares); err != nil && !os.IsNotExist(err) {
			return nil, "", fmt.Errorf("read usage file: %w", err)
		}
	}

	fairshare.CalcFairSharePerc(tree.Root, 1.0)
	return tree, usagePath, nil
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the fairshare tree with shares, usage and tree percentage",
	RunE: func(cmd *cobra.Command, args []string) error {
		tree, _, err := loadTree(cmd)
		if err != nil {
			return err
		}
		fairshare.CalcUsageFactor(tree)

		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ENTITY\tSHARES\tUSAGE\tTREE%\tUSAGE%")
		tree.Walk(func(n *fairshare.Node) {
			fmt.Fprintf(w, "%s\t%d\t%.0f\t%.4f\t%.4f\n",
				n.Name, n.Shares, n.Usage, n.TreePercentage*100, n.UsageFactor*100)
		})
		return w.Flush()
	},
}

var decayCmd = &cobra.Command{
	Use:   "decay <factor>",
	Short: "Scale every entity's usage by factor and rewrite the usage file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tree, usagePath, err := loadTree(cmd)
		if err != nil {
			return err
		}
		if usagePath == "" {
			return fmt.Errorf("--usage-file is required to persist a decay")
		}
		var factor float64
		if _, err := fmt.Sscanf(args[0], "%f", &factor); err != nil {
			return fmt.Errorf("bad decay factor %q: %w", args[0], err)
		}
		fairshare.DecayTree(tree.Root, factor)
		if err := fairshare.WriteUsage(usagePath, tree); err != nil {
			return fmt.Errorf("write usage file: %w", err)
		}
		fmt.Printf("decayed usage by factor %.4f\n", factor)
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset <entity>",
	Short: "Zero an entity's usage (and its whole subtree, if it is a group) and rewrite the usage file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tree, usagePath, err := loadTree(cmd)
		if err != nil {
			return err
		}
		if usagePath == "" {
			return fmt.Errorf("--usage-file is required to persist a reset")
		}
		node, ok := tree.Find(args[0])
		if !ok {
			return fmt.Errorf("unknown entity %q", args[0])
		}
		fairshare.ResetUsage(node)
		if err := fairshare.WriteUsage(usagePath, tree); err != nil {
			return fmt.Errorf("write usage file: %w", err)
		}
		fmt.Printf("reset usage for %q\n", args[0])
		return nil
	},
}

var setCmd = &cobra.Command{
	Use:   "set <entity> <usage>",
	Short: "Set an entity's usage directly and rewrite the usage file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tree, usagePath, err := loadTree(cmd)
		if err != nil {
			return err
		}
		if usagePath == "" {
			return fmt.Errorf("--usage-file is required to persist a usage change")
		}
		node, ok := tree.Find(args[0])
		if !ok {
			return fmt.Errorf("unknown entity %q", args[0])
		}
		var usage float64
		if _, err := fmt.Sscanf(args[1], "%f", &usage); err != nil {
			return fmt.Errorf("bad usage value %q: %w", args[1], err)
		}
		delta := usage - node.Usage
		fairshare.ChargeUsage(node, delta)
		if err := fairshare.WriteUsage(usagePath, tree); err != nil {
			return fmt.Errorf("write usage file: %w", err)
		}
		fmt.Printf("set usage for %q to %.4f\n", args[0], usage)
		return nil
	},
}
