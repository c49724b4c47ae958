package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tabdeck/tabdeck-cli/internal/core/domain"
	"github.com/tabdeck/tabdeck-cli/internal/core/ports/driving"
)

var (
	siteTitle   string
	siteFavicon string
	siteFolder  string
)

var siteCmd = &cobra.Command{
	Use:   "site",
	Short: "Manage dashboard sites",
}

var siteAddCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Add a site to the grid",
	Long: `Add a site to the end of the root grid, or into a folder
with --folder.`,
	Args: cobra.ExactArgs(1),
	RunE: runSiteAdd,
}

var siteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all sites",
	RunE:  runSiteList,
}

func init() {
	siteAddCmd.Flags().StringVarP(&siteTitle, "title", "t", "", "display title (defaults to the URL)")
	siteAddCmd.Flags().StringVar(&siteFavicon, "favicon", "", "favicon URL")
	siteAddCmd.Flags().StringVarP(&siteFolder, "folder", "f", "", "folder id to add into")

	siteCmd.AddCommand(siteAddCmd)
	siteCmd.AddCommand(siteListCmd)
	rootCmd.AddCommand(siteCmd)
}

func runSiteAdd(cmd *cobra.Command, args []string) error {
	if gridService == nil {
		return errors.New("grid service not configured")
	}

	url := args[0]
	title := siteTitle
	if title == "" {
		title = url
	}

	id, err := gridService.AddSite(cmd.Context(), driving.NewSite{
		Title:    title,
		URL:      url,
		Favicon:  siteFavicon,
		ParentID: siteFolder,
	})
	if err != nil {
		return fmt.Errorf("failed to add site: %w", err)
	}

	cmd.Printf("Added site %s (%s)\n", title, id)
	return nil
}

func runSiteList(cmd *cobra.Command, _ []string) error {
	if gridService == nil {
		return errors.New("grid service not configured")
	}

	p := gridService.Projection()
	if p.Len() == 0 {
		cmd.Println("No items yet. Add one with 'tabdeck site add <url>'.")
		return nil
	}

	for _, item := range p.Roots() {
		if site, ok := domain.AsSite(item); ok {
			printSite(cmd, site, "")
			continue
		}
		for _, site := range p.ChildrenOf(item.Meta().ID) {
			printSite(cmd, site, item.Meta().Title)
		}
	}
	return nil
}

func printSite(cmd *cobra.Command, site *domain.Site, folder string) {
	if folder != "" {
		cmd.Printf("%s  %s  %s  [%s]\n", site.ID, site.Title, site.URL, folder)
		return
	}
	cmd.Printf("%s  %s  %s\n", site.ID, site.Title, site.URL)
}
