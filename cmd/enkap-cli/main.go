package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/camoo/enkap-go/pkg/enkap/config"
	"github.com/camoo/enkap-go/pkg/enkap/oauth"
	"github.com/camoo/enkap-go/pkg/enkap/services"
	"github.com/camoo/enkap-go/pkg/enkap/types/models"
	"github.com/diwise/service-chassis/pkg/infrastructure/buildinfo"
	"github.com/diwise/service-chassis/pkg/infrastructure/o11y"
)

const appName string = "enkap-cli"

const usage string = `usage: enkap-cli <command> [flags]

commands:
  status   -txid ID | -merchant REF   print the payment status of an order
  payment  -txid ID | -merchant REF   print the payment details of an order
  token    [-grant NAME]              print a bearer token for a grant
  setup    -notify URL -return URL    register the callback urls
`

func main() {
	ctx, log, cleanup := o11y.Init(context.Background(), appName, buildinfo.SourceVersion(), "json")
	defer cleanup()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	api, err := services.NewAPI(ctx, config.FromEnvironment(ctx))
	if err != nil {
		log.Error("failed to create enkap api", "err", err.Error())
		os.Exit(1)
	}
	defer api.Close()

	if err = run(ctx, api, os.Args[1], os.Args[2:], os.Stdout); err != nil {
		log.Error("command failed", "command", os.Args[1], "err", err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, api *services.API, command string, args []string, out io.Writer) error {
	switch command {
	case "status":
		return status(ctx, api, args, out)
	case "payment":
		return payment(ctx, api, args, out)
	case "token":
		return token(ctx, api, args, out)
	case "setup":
		return setup(ctx, api, args, out)
	}

	return fmt.Errorf("unknown command %q\n%s", command, usage)
}

type orderRef struct {
	txid     string
	merchant string
}

func parseOrderRef(name string, args []string) (orderRef, error) {
	ref := orderRef{}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&ref.txid, "txid", "", "order transaction id")
	fs.StringVar(&ref.merchant, "merchant", "", "merchant reference id")

	if err := fs.Parse(args); err != nil {
		return ref, err
	}

	if (ref.txid == "") == (ref.merchant == "") {
		return ref, fmt.Errorf("exactly one of -txid and -merchant is required")
	}

	return ref, nil
}

func status(ctx context.Context, api *services.API, args []string, out io.Writer) error {
	ref, err := parseOrderRef("status", args)
	if err != nil {
		return err
	}

	var s *models.Status
	if ref.txid != "" {
		s, err = api.Statuses.GetByTransactionID(ctx, ref.txid)
	} else {
		s, err = api.Statuses.GetByOrderMerchantID(ctx, ref.merchant)
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, s.Current(ctx))
	return err
}

func payment(ctx context.Context, api *services.API, args []string, out io.Writer) error {
	ref, err := parseOrderRef("payment", args)
	if err != nil {
		return err
	}

	var p *models.Payment
	if ref.txid != "" {
		p, err = api.Payments.GetByTransactionID(ctx, ref.txid)
	} else {
		p, err = api.Payments.GetByOrderMerchantID(ctx, ref.merchant)
	}
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	return enc.Encode(p.Serialize(false))
}

func token(ctx context.Context, api *services.API, args []string, out io.Writer) error {
	var grantName string

	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.StringVar(&grantName, "grant", "", "grant type name, e.g. CLIENT_CREDENTIALS")

	if err := fs.Parse(args); err != nil {
		return err
	}

	var grant *oauth.GrantType
	if grantName != "" {
		g, err := oauth.GrantTypeFromName(grantName)
		if err != nil {
			return err
		}
		grant = &g
	}

	t, err := api.Auth.GetAccessToken(ctx, grant, nil)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, t)
	return err
}

func setup(ctx context.Context, api *services.API, args []string, out io.Writer) error {
	var notifyURL, returnURL string

	fs := flag.NewFlagSet("setup", flag.ContinueOnError)
	fs.StringVar(&notifyURL, "notify", "", "notification url")
	fs.StringVar(&returnURL, "return", "", "return url")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if !api.CallbackURLs.Set(ctx, models.NewCallbackURL(notifyURL, returnURL)) {
		return fmt.Errorf("callback urls were not accepted")
	}

	_, err := fmt.Fprintln(out, "callback urls registered")
	return err
}
