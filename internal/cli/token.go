package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yigit/uniportal/internal/bootstrap"
)

func newTokenCommand(a *app) *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Work with bearer tokens",
	}

	var (
		subject string
		roles   []string
		ttl     time.Duration
	)
	issueCmd := &cobra.Command{
		Use:   "issue",
		Short: "Mint a signed bearer token",
		Long: `Mints an HS256 token signed with jwt.secret. The subject is what the role
resolver looks up: a coordinator subject, an admin subject, or any subject
combined with --role admin.`,
		Example: `  portalctl token issue --subject coord-cs --ttl 8h
  portalctl token issue --subject ops --role admin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, expiresAt, err := bootstrap.NewJWTService(a.cfg).IssueToken(subject, roles, ttl)
			if err != nil {
				return err
			}
			a.lgr.Info().Str("subject", subject).Strs("roles", roles).Time("expiresAt", expiresAt).Msg("Token issued")
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	issueCmd.Flags().StringVar(&subject, "subject", "", "Token subject")
	issueCmd.Flags().StringSliceVar(&roles, "role", nil, "Role claim to embed (repeatable)")
	issueCmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default jwt.access_token_expiration)")
	_ = issueCmd.MarkFlagRequired("subject")

	tokenCmd.AddCommand(issueCmd)
	return tokenCmd
}
