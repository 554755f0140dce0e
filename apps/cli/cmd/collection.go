package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/ababil/packages/model"
	"github.com/abdul-hamid-achik/ababil/packages/storage"
)

var (
	collectionParentFlag      string
	collectionDescriptionFlag string
	collectionAuthTypeFlag    string
	collectionAuthParamsFlag  []string
	collectionAuthClearFlag   bool
)

var collectionCmd = &cobra.Command{
	Use:     "collection",
	Aliases: []string{"col"},
	Short:   "Manage collections and their auth",
}

var collectionListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the collection tree",
	Args:  cobra.NoArgs,
	RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
		cols, err := s.store.LoadCollections()
		if err != nil {
			return err
		}
		reqs, err := s.store.LoadRequests()
		if err != nil {
			return err
		}
		counts := make(map[string]int)
		for _, r := range reqs {
			counts[r.CollectionID]++
		}
		s.console.FormatCollections(cols, counts)
		return nil
	}),
}

var collectionCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a collection",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
		c := model.Collection{Name: args[0], Description: collectionDescriptionFlag}
		if collectionParentFlag != "" {
			parent, err := s.findCollection(collectionParentFlag)
			if err != nil {
				return err
			}
			c.ParentID = parent.ID
		}
		saved, err := s.store.SaveCollection(c)
		if err != nil {
			return err
		}
		s.console.Success("Created collection %s (%s)", saved.Name, saved.ID)
		return nil
	}),
}

var collectionDeleteCmd = &cobra.Command{
	Use:               "delete <name>",
	Short:             "Delete a collection with its sub-collections, requests and linked environments",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeCollectionNames,
	RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
		c, err := s.findCollection(args[0])
		if err != nil {
			return err
		}
		if err := s.store.DeleteCollection(c.ID); err != nil {
			return err
		}
		s.console.Success("Deleted collection %s", c.Name)
		return nil
	}),
}

var collectionAuthCmd = &cobra.Command{
	Use:   "auth <name>",
	Short: "Show, set or clear the auth inherited by a collection's requests",
	Example: `  ababil collection auth Users --type bearer --param token={{api_token}}
  ababil collection auth Users --type apikey --param key=X-Key --param value={{key}} --param in=header
  ababil collection auth Users --clear`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeCollectionNames,
	RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
		c, err := s.findCollection(args[0])
		if err != nil {
			return err
		}

		var u storage.CollectionUpdate
		switch {
		case collectionAuthClearFlag:
			u.ClearAuth = true
		case collectionAuthTypeFlag != "":
			a, err := buildAuth(collectionAuthTypeFlag, collectionAuthParamsFlag)
			if err != nil {
				return err
			}
			u.Auth = a
		default:
			label := "none"
			if c.Auth != nil {
				label = string(c.Auth.Type)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", c.Name, label)
			for _, p := range c.Auth.Params() {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s = %s\n", p.Key, p.Value)
			}
			return nil
		}

		if _, err := s.store.UpdateCollection(c.ID, u); err != nil {
			return err
		}
		s.console.Success("Updated auth of %s", c.Name)
		return nil
	}),
}

func init() {
	collectionCreateCmd.Flags().StringVar(&collectionParentFlag, "parent", "", "Parent collection name or id")
	collectionCreateCmd.Flags().StringVar(&collectionDescriptionFlag, "description", "", "Collection description")
	collectionAuthCmd.Flags().StringVar(&collectionAuthTypeFlag, "type", "", "Auth type: noauth, bearer, basic, apikey, digest, oauth1, oauth2")
	collectionAuthCmd.Flags().StringArrayVar(&collectionAuthParamsFlag, "param", nil, "Auth parameter as key=value (repeatable)")
	collectionAuthCmd.Flags().BoolVar(&collectionAuthClearFlag, "clear", false, "Remove the collection's auth")
	collectionAuthCmd.MarkFlagsMutuallyExclusive("type", "clear")

	collectionCmd.AddCommand(collectionListCmd, collectionCreateCmd, collectionDeleteCmd, collectionAuthCmd)
}
