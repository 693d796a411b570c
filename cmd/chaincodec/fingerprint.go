package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"chaincodec/internal/batch"
	"chaincodec/internal/model"
)

func runFingerprint(cmd *cobra.Command, args []string) error {
	family, _ := cmd.Flags().GetString("family")
	fp, err := batch.FingerprintFor(model.ChainFamily(strings.ToLower(family)), args[0])
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), fp)
	return err
}
