// cmd/mintctl/cmd/create.go
package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mintcart/mintcart-backend/internal/database"
	"github.com/mintcart/mintcart-backend/internal/services"
	"github.com/mintcart/mintcart-backend/internal/utils"
)

type createFlags struct {
	chainID     int64
	owner       string
	name        string
	slug        string
	description string
	price       string
	supply      uint64
}

var create createFlags

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a product with the relayer key",
	Long:    `Create a product with the relayer key. --owner defaults to the relayer address.`,
	Example: `mintctl create --chain-id 137 --name "Mug" --slug mug --price 0.05 --supply 10`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		stores, err := database.Open(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}
		defer stores.Close()

		signer, err := services.NewRelayerSigner(cfg)
		if err != nil {
			return err
		}
		if signer == nil {
			return fmt.Errorf("a relayer private key is required")
		}

		workflow, err := services.NewCreateProductWorkflow(cfg, stores.Intents, nil)
		if err != nil {
			return err
		}

		owner := create.owner
		if owner == "" {
			owner = signer.Address().Hex()
		}
		session := &services.WalletSession{
			ChainID:        create.chainID,
			Address:        owner,
			DisplayAddress: utils.DisplayAddress(owner),
			Signer:         signer,
		}
		draft := services.ProductDraft{
			Name:        create.name,
			Description: create.description,
			Slug:        create.slug,
			Price:       create.price,
			Supply:      create.supply,
		}

		var redirect string
		result, err := workflow.Submit(cmd.Context(), session, draft, services.NavigatorFunc(func(path string) {
			redirect = path
		}))
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"redirect":  redirect,
			"tx_hash":   result.TxHash,
			"contract":  result.ContractAddress,
			"token_uri": result.TokenURI,
			"resumed":   result.Resumed,
		})
	},
}

func init() {
	flags := createCmd.Flags()
	flags.Int64Var(&create.chainID, "chain-id", 0, "target chain id")
	flags.StringVar(&create.owner, "owner", "", "owner address")
	flags.StringVar(&create.name, "name", "", "product name")
	flags.StringVar(&create.slug, "slug", "", "product slug")
	flags.StringVar(&create.description, "description", "", "product description")
	flags.StringVar(&create.price, "price", "", "price in ether, e.g. 0.05")
	flags.Uint64Var(&create.supply, "supply", 0, "number of units")
	createCmd.MarkFlagRequired("chain-id")
	createCmd.MarkFlagRequired("name")
	createCmd.MarkFlagRequired("slug")
	createCmd.MarkFlagRequired("price")
	createCmd.MarkFlagRequired("supply")

	rootCmd.AddCommand(createCmd)
}
