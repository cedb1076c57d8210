package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bionicotaku/lingo-utils-claimcheck"
)

type result struct {
	IsValid bool   `json:"isValid"`
	Reason  string `json:"reason,omitempty"`
	Error   string `json:"error,omitempty"`
}

func newValidateCmd() *cobra.Command {
	var (
		decoder string
		explain bool
	)
	cmd := &cobra.Command{
		Use:   "validate [token|-]",
		Short: "Validate a token; exits 1 when it is invalid",
		Long: "Validate a token given as argument, read from stdin when the argument is '-',\n" +
			"or taken from CLAIMCHECK_TOKEN when no argument is given.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := readToken(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			v, err := claimcheck.NewValidator(claimcheck.Config{Decoder: claimcheck.DecoderKind(decoder)})
			if err != nil {
				return err
			}
			_, checkErr := v.Check(token)
			return report(cmd.OutOrStdout(), checkErr, explain)
		},
	}
	cmd.Flags().StringVar(&decoder, "decoder", string(claimcheck.DecoderJWX), "Token decoder: jwx|golang-jwt")
	cmd.Flags().BoolVar(&explain, "explain", false, "Include the failure reason in the output")
	return cmd
}

func newMintCmd() *cobra.Command {
	var (
		name, role, seed, secret string
		extra                    map[string]string
		omit                     []string
	)
	sample := claimcheck.SampleClaims()
	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Print an HS256 token carrying the given claims",
		RunE: func(cmd *cobra.Command, _ []string) error {
			claims := map[string]string{
				claimcheck.ClaimName: name,
				claimcheck.ClaimRole: role,
				claimcheck.ClaimSeed: seed,
			}
			for k, v := range extra {
				claims[k] = v
			}
			for _, k := range omit {
				delete(claims, k)
			}
			token, err := claimcheck.Mint(claims, []byte(secret))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&name, "name", sample[claimcheck.ClaimName], "Name claim")
	cmd.Flags().StringVar(&role, "role", sample[claimcheck.ClaimRole], "Role claim")
	cmd.Flags().StringVar(&seed, "seed", sample[claimcheck.ClaimSeed], "Seed claim")
	cmd.Flags().StringToStringVar(&extra, "claim", nil, "Additional string claims (k=v,...)")
	cmd.Flags().StringSliceVar(&omit, "omit", nil, "Claims to leave out")
	cmd.Flags().StringVar(&secret, "secret", envOr("CLAIMCHECK_MINT_SECRET", claimcheck.DefaultDevSecret), "HMAC secret (env CLAIMCHECK_MINT_SECRET)")
	return cmd
}

func newFetchCmd() *cobra.Command {
	var (
		params  claimcheck.SourceParams
		timeout time.Duration
		explain bool
	)
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch an access token with the client-credentials grant and validate it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if params.TokenURL == "" || params.ClientID == "" {
				return errors.New("--token-url and --client-id are required")
			}
			v, err := claimcheck.NewValidator(claimcheck.Config{})
			if err != nil {
				return err
			}
			provider := claimcheck.NewProvider(claimcheck.ProviderConfig{
				TokenURL:     params.TokenURL,
				ClientID:     params.ClientID,
				ClientSecret: params.ClientSecret,
				Scopes:       params.Scopes,
			})
			ctx, cancel := contextWithTimeout(cmd, timeout)
			defer cancel()

			_, err = provider.CheckToken(ctx, v)
			var checkErr *claimcheck.Error
			if err != nil && !errors.As(err, &checkErr) {
				return err
			}
			return report(cmd.OutOrStdout(), err, explain)
		},
	}
	cmd.Flags().StringVar(&params.TokenURL, "token-url", os.Getenv("CLAIMCHECK_TOKEN_URL"), "OAuth2 token endpoint (env CLAIMCHECK_TOKEN_URL)")
	cmd.Flags().StringVar(&params.ClientID, "client-id", os.Getenv("CLAIMCHECK_CLIENT_ID"), "Client id (env CLAIMCHECK_CLIENT_ID)")
	cmd.Flags().StringVar(&params.ClientSecret, "client-secret", os.Getenv("CLAIMCHECK_CLIENT_SECRET"), "Client secret (env CLAIMCHECK_CLIENT_SECRET)")
	cmd.Flags().StringSliceVar(&params.Scopes, "scope", nil, "Scopes to request")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Token request timeout")
	cmd.Flags().BoolVar(&explain, "explain", false, "Include the failure reason in the output")
	return cmd
}

func readToken(stdin io.Reader, args []string) (string, error) {
	var token string
	switch {
	case len(args) == 1 && args[0] == "-":
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read token: %w", err)
		}
		token = line
	case len(args) == 1:
		token = args[0]
	default:
		token = os.Getenv("CLAIMCHECK_TOKEN")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errors.New("no token given")
	}
	return token, nil
}

// report prints the result and returns errInvalid for a rejected token.
func report(w io.Writer, checkErr error, explain bool) error {
	out := result{IsValid: checkErr == nil}
	if checkErr != nil && explain {
		out.Reason = string(claimcheck.CodeOf(checkErr))
		out.Error = checkErr.Error()
	}
	if err := json.NewEncoder(w).Encode(out); err != nil {
		return err
	}
	if checkErr != nil {
		return errInvalid
	}
	return nil
}
