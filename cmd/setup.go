package cmd

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/whyfires/firescope/internal/utils"
	"github.com/whyfires/firescope/pkg/backend"
	"github.com/whyfires/firescope/pkg/progress"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Download and convert the backend's data",
	Long: `Download the MODIS dataset and the prediction model, convert them into the files the backend
serves, and mark the backend as set up. Only one setup runs at a time on this machine.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		modelOnly, _ := cmd.Flags().GetBool("model-only")
		force, _ := cmd.Flags().GetBool("force")

		c, err := newClient()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		if !force {
			done, err := c.DataSetup(ctx)
			if err != nil {
				return err
			}
			if done && !modelOnly {
				utils.Log.Info("Backend data is already set up, use --force to run again")
				return nil
			}
		}
		if st, err := c.CheckData(ctx); err == nil {
			utils.Log.Infof("Current data: %s", st.Describe())
		}

		lock, err := utils.NewSetupLock(viper.GetString("setup.lockdir"), "setup")
		if err != nil {
			return err
		}
		if err := lock.Lock(); err != nil {
			return err
		}
		defer lock.Unlock()

		reg := progress.NewRegistry(utils.Logger("setup"))
		defer reg.CloseAll()
		err = progress.Setup(ctx, c, reg, modelOnly, func(stage string, ev backend.Event) {
			if ev.Progress != nil {
				utils.Log.Infof("%s [%3.0f%%] %s %s", stage, *ev.Progress, ev.Phase, ev.Message)
			}
		})
		if err != nil {
			return err
		}
		utils.Log.Info("Setup complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
	setupCmd.Flags().Bool("model-only", false, "Only download the model (convert if the dataset is already there)")
	setupCmd.Flags().Bool("force", false, "Run even if the backend reports data as set up")
	setupCmd.Flags().String("lockdir", "", "Directory for the setup lock file (default $HOME/.config/firescope)")
	viper.BindPFlag("setup.lockdir", setupCmd.Flags().Lookup("lockdir"))
}
