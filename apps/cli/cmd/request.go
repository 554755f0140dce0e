package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/ababil/packages/import/curl"
	"github.com/abdul-hamid-achik/ababil/packages/model"
)

var (
	requestCollectionFlag string
	requestNameFlag       string
	requestNoAuthLiftFlag bool
)

var requestCmd = &cobra.Command{
	Use:     "request",
	Aliases: []string{"req"},
	Short:   "Manage saved requests",
}

var requestListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved requests",
	Args:  cobra.NoArgs,
	RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
		var reqs []model.SavedRequest
		var err error
		if requestCollectionFlag != "" {
			col, ferr := s.findCollection(requestCollectionFlag)
			if ferr != nil {
				return ferr
			}
			reqs, err = s.store.RequestsByCollection(col.ID)
		} else {
			reqs, err = s.store.LoadRequests()
		}
		if err != nil {
			return err
		}
		s.console.FormatRequests(reqs)
		return nil
	}),
}

var requestShowCmd = &cobra.Command{
	Use:               "show <name>",
	Short:             "Print a saved request as a request file",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeRequestNames,
	RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
		r, err := s.findRequest(args[0])
		if err != nil {
			return err
		}
		rf := model.RequestFile{Name: r.Name, CollectionID: r.CollectionID, DraftRequest: *r.Draft()}
		data, err := json.MarshalIndent(rf, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}),
}

var requestSaveCmd = &cobra.Command{
	Use:   "save <file>",
	Short: "Save a request file into storage",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
		rf, err := model.LoadRequestFile(args[0])
		if err != nil {
			return withExitCode(ExitParseError, err)
		}
		if rf.Name == "" {
			rf.Name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		}
		saved, err := s.saveRequestFile(rf)
		if err != nil {
			return err
		}
		s.console.Success("Saved request %s (%s)", saved.Name, saved.ID)
		return nil
	}),
}

var requestImportCmd = &cobra.Command{
	Use:   "import <curl-file>",
	Short: "Import curl commands as saved requests",
	Long: `Import every curl command in a file as a saved request.

-u credentials and "Authorization: Bearer" headers become the request's auth
unless --no-auth-lift is given.`,
	Args: cobra.ExactArgs(1),
	RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
		conv := curl.NewConverter(curl.WithAuthLifting(!requestNoAuthLiftFlag))
		files, err := conv.ConvertFile(args[0])
		if err != nil {
			return withExitCode(ExitParseError, err)
		}
		for _, rf := range files {
			saved, err := s.saveRequestFile(rf)
			if err != nil {
				return err
			}
			s.console.Success("Imported %s %s as %s", saved.Method, saved.URL, saved.Name)
		}
		return nil
	}),
}

var requestDeleteCmd = &cobra.Command{
	Use:               "delete <name>",
	Short:             "Delete a saved request",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeRequestNames,
	RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
		r, err := s.findRequest(args[0])
		if err != nil {
			return err
		}
		if err := s.store.DeleteRequest(r.ID); err != nil {
			return err
		}
		s.console.Success("Deleted request %s", r.Name)
		return nil
	}),
}

// saveRequestFile stores rf, honoring --name and --collection.
func (s *session) saveRequestFile(rf *model.RequestFile) (*model.SavedRequest, error) {
	if requestNameFlag != "" {
		rf.Name = requestNameFlag
	}
	collectionID := rf.CollectionID
	if requestCollectionFlag != "" {
		col, err := s.findCollection(requestCollectionFlag)
		if err != nil {
			return nil, err
		}
		collectionID = col.ID
	}
	return s.store.SaveRequest(model.SavedRequest{
		Name:         rf.Name,
		Method:       strings.ToUpper(rf.Method),
		URL:          rf.URL,
		Body:         rf.Body,
		Headers:      rf.Headers,
		Auth:         rf.Auth,
		TestScript:   rf.TestScript,
		CollectionID: collectionID,
	})
}

func init() {
	requestListCmd.Flags().StringVar(&requestCollectionFlag, "collection", "", "Only requests filed under this collection")
	for _, c := range []*cobra.Command{requestSaveCmd, requestImportCmd} {
		c.Flags().StringVar(&requestCollectionFlag, "collection", "", "File the request under this collection")
	}
	requestSaveCmd.Flags().StringVar(&requestNameFlag, "name", "", "Request name (default: from the file)")
	requestImportCmd.Flags().BoolVar(&requestNoAuthLiftFlag, "no-auth-lift", false, "Keep credentials as literal headers")

	requestCmd.AddCommand(requestListCmd, requestShowCmd, requestSaveCmd, requestImportCmd, requestDeleteCmd)
}
