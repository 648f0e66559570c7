package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jhoicas/facturacion-app/internal/application/backup"
)

// opener abre el servicio de copias y devuelve la función que lo cierra.
type opener func(ctx context.Context) (*backup.Service, func(), error)

func newRootCmd(open opener) *cobra.Command {
	var (
		svc     *backup.Service
		closeFn func()
	)
	root := &cobra.Command{
		Use:           "backupctl",
		Short:         "Copias de seguridad del almacén de facturación",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			svc, closeFn, err = open(cmd.Context())
			return err
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if closeFn != nil {
				closeFn()
			}
		},
	}
	service := func() *backup.Service { return svc }

	root.AddCommand(
		newCreateCmd(service),
		newListCmd(service),
		newRestoreCmd(service),
		newDeleteCmd(service),
	)
	return root
}

func newCreateCmd(svc func() *backup.Service) *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Crea una copia de seguridad del estado actual",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, err := svc().CreateBackup(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), name)
			return nil
		},
	}
}

func newListCmd(svc func() *backup.Service) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Lista las copias, la más nueva primero",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			files, err := svc().List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NOMBRE\tTAMAÑO\tFECHA")
			for _, f := range files {
				fmt.Fprintf(tw, "%s\t%d\t%s\n", f.Name, f.Size, f.ModTime.Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		},
	}
}

func newRestoreCmd(svc func() *backup.Service) *cobra.Command {
	var policy string
	cmd := &cobra.Command{
		Use:   "restore <archivo>",
		Short: "Sustituye el contenido del almacén por el de la copia",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := backup.ParsePolicy(policy, svc().DefaultPolicy())
			if err != nil {
				return err
			}
			report, err := svc().Restore(cmd.Context(), args[0], p)
			if report != nil {
				printReport(cmd, report)
			}
			if err != nil {
				return err
			}
			if report.Status() == backup.StatusPartial {
				return errors.New("restauración parcial")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&policy, "policy", "", "isolated | atomic (vacío = BACKUP_RESTORE_POLICY)")
	return cmd
}

func newDeleteCmd(svc func() *backup.Service) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <archivo>",
		Short: "Borra una copia de seguridad",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := svc().Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "borrada", args[0])
			return nil
		},
	}
}

func printReport(cmd *cobra.Command, r *backup.RestoreReport) {
	fmt.Fprintln(cmd.OutOrStdout(), r.Message())
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ETAPA\tRESTAURADOS\tFALLIDOS\tHUECOS\tERROR")
	for _, s := range r.Stages {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\n", s.Stage, s.Restored, s.Failed, s.Gaps, s.Error)
	}
	_ = tw.Flush()
}
