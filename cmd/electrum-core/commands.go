package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	electrumDI "github.com/fd1az/electrum-core/business/electrum/di"
	feesDI "github.com/fd1az/electrum-core/business/fees/di"
	otpApp "github.com/fd1az/electrum-core/business/otp/app"
	otpDI "github.com/fd1az/electrum-core/business/otp/di"
	otpDomain "github.com/fd1az/electrum-core/business/otp/domain"
	supportDI "github.com/fd1az/electrum-core/business/support/di"
)

// withConnection bootstraps, connects and runs fn.
func withConnection(cmd *cobra.Command, flags *rootFlags, fn func(ctx context.Context, rt *runtime) error) error {
	return withRuntime(cmd, flags, true, fn)
}

// withRuntime bootstraps and runs fn; connect dials the server first.
func withRuntime(cmd *cobra.Command, flags *rootFlags, connect bool, fn func(ctx context.Context, rt *runtime) error) error {
	ctx := cmd.Context()

	rt, err := bootstrap(ctx, flags, bootOptions{})
	if err != nil {
		return err
	}
	defer rt.Close()

	if connect {
		if err := rt.connect(ctx); err != nil {
			return err
		}
	}
	return fn(ctx, rt)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// coins formats a satoshi amount in whole coins.
func coins(sats int64) string {
	return decimal.New(sats, -8).StringFixed(8)
}

func newBalanceCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <address>...",
		Short: "Show confirmed and unconfirmed balance",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConnection(cmd, flags, func(ctx context.Context, rt *runtime) error {
				q := electrumDI.GetQueryService(rt.services())

				multi, err := q.MultiGetBalanceByAddress(ctx, args)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				for _, addr := range args {
					b := multi.Addresses[addr]
					fmt.Fprintf(out, "%s  confirmed %s  unconfirmed %s\n", addr, coins(b.Confirmed), coins(b.Unconfirmed))
				}
				if len(args) > 1 {
					fmt.Fprintf(out, "total  confirmed %s  unconfirmed %s\n", coins(multi.Confirmed), coins(multi.Unconfirmed))
				}
				return nil
			})
		},
	}
}

func newHistoryCmd(flags *rootFlags) *cobra.Command {
	var full, mempool bool

	cmd := &cobra.Command{
		Use:   "history <address>",
		Short: "List transactions touching an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConnection(cmd, flags, func(ctx context.Context, rt *runtime) error {
				q := electrumDI.GetQueryService(rt.services())

				var (
					v   any
					err error
				)
				switch {
				case full:
					v, err = q.GetTransactionsFullByAddress(ctx, args[0])
				case mempool:
					v, err = q.GetMempoolTransactionsByAddress(ctx, args[0])
				default:
					v, err = q.GetTransactionsByAddress(ctx, args[0])
				}
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), v)
			})
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "Include decoded inputs and outputs")
	cmd.Flags().BoolVar(&mempool, "mempool", false, "Only unconfirmed transactions")
	return cmd
}

func newTxCmd(flags *rootFlags) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "tx <txid>...",
		Short: "Fetch transactions by id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConnection(cmd, flags, func(ctx context.Context, rt *runtime) error {
				q := electrumDI.GetQueryService(rt.services())
				if raw {
					txs, err := q.MultiGetRawTransactions(ctx, args)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), txs)
				}
				txs, err := q.MultiGetTransactions(ctx, args)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), txs)
			})
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print raw hex instead of decoded transactions")
	return cmd
}

func newDecodeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "decode <hex>",
		Short: "Decode a raw transaction locally",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, flags, false, func(ctx context.Context, rt *runtime) error {
				tx, err := electrumDI.GetQueryService(rt.services()).DecodeRawTransaction(args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), tx)
			})
		},
	}
}

func newFeesCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "fees",
		Short: "Estimate fast, medium and slow fee rates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConnection(cmd, flags, func(ctx context.Context, rt *runtime) error {
				rates, err := feesDI.GetFeeService(rt.services()).EstimateFees(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "fast    %d sat/vB\n", rates.Fast)
				fmt.Fprintf(out, "medium  %d sat/vB\n", rates.Medium)
				fmt.Fprintf(out, "slow    %d sat/vB\n", rates.Slow)
				return nil
			})
		},
	}
}

func newBroadcastCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "broadcast <hex>",
		Short: "Broadcast a signed transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConnection(cmd, flags, func(ctx context.Context, rt *runtime) error {
				txid, err := electrumDI.GetQueryService(rt.services()).Broadcast(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), txid)
				return nil
			})
		},
	}
}

func newProfileCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "profile <id>",
		Short: "Look up an on-chain profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConnection(cmd, flags, func(ctx context.Context, rt *runtime) error {
				p := electrumDI.GetQueryService(rt.services()).VerifyProfile(ctx, args[0])
				return printJSON(cmd.OutOrStdout(), p)
			})
		},
	}
}

func newDecryptCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "decrypt <payload|deep-link>",
		Short: "Decrypt an OTP payload with a configured wallet key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, flags, false, func(ctx context.Context, rt *runtime) error {
				svc := otpDI.GetOTPService(rt.services())

				in := strings.TrimSpace(args[0])
				var (
					res otpApp.Result
					err error
				)
				if otpDomain.IsDecryptURL(in) {
					res, err = svc.HandleDecryptURL(ctx, in)
				} else {
					res, err = svc.DecryptOTP(ctx, in)
				}
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "otp     %s\n", res.OTP)
				fmt.Fprintf(out, "wallet  %s\n", res.Wallet)
				if res.AppName != "" {
					fmt.Fprintf(out, "app     %s\n", res.AppName)
				}
				if res.ResponseURL != "" {
					fmt.Fprintf(out, "reply   %s\n", res.ResponseURL)
				}
				return nil
			})
		},
	}
}

func newProbeCmd(flags *rootFlags) *cobra.Command {
	var tcpPort, sslPort uint16

	cmd := &cobra.Command{
		Use:   "probe <host>",
		Short: "Check whether a server answers a handshake",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, flags, false, func(ctx context.Context, rt *runtime) error {
				ok := electrumDI.GetProber(rt.services()).TestConnection(ctx, args[0], tcpPort, sslPort)
				if !ok {
					return fmt.Errorf("%s did not answer", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s ok\n", args[0])
				return nil
			})
		},
	}
	cmd.Flags().Uint16Var(&tcpPort, "tcp", 0, "Plain TCP port")
	cmd.Flags().Uint16Var(&sslPort, "ssl", 0, "TLS port")
	return cmd
}

func newSupportCmd(flags *rootFlags) *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "support",
		Short: "Talk to support servers",
	}
	cmd.PersistentFlags().StringVar(&server, "server", "", "Support server host[:port] (default server if empty)")

	difficulties := &cobra.Command{
		Use:   "difficulties",
		Short: "List the support tiers a server offers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, flags, false, func(ctx context.Context, rt *runtime) error {
				srv, err := supportDI.GetSupportService(rt.services()).Difficulties(ctx, server)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, d := range srv.Difficulties {
					fmt.Fprintf(out, "support in ~%ds for %v to %s\n", d.Time, d.Amount, d.Address)
				}
				return nil
			})
		},
	}

	var address string
	var reward float64
	request := &cobra.Command{
		Use:   "request <tx-hex>",
		Short: "Ask a server to support a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, flags, false, func(ctx context.Context, rt *runtime) error {
				res, err := supportDI.GetSupportService(rt.services()).RequestSupport(ctx, server, args[0], address, reward)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	request.Flags().StringVar(&address, "address", "", "Reward address")
	request.Flags().Float64Var(&reward, "reward", 0, "Reward amount")

	status := &cobra.Command{
		Use:   "status <hash>",
		Short: "Show the tickets of a support request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, flags, false, func(ctx context.Context, rt *runtime) error {
				st, err := supportDI.GetSupportService(rt.services()).RequestStatus(ctx, server, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), st)
			})
		},
	}

	cmd.AddCommand(difficulties, request, status)
	return cmd
}
