package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/roelfdiedericks/inappbrowser/internal/browser"
	"github.com/roelfdiedericks/inappbrowser/internal/config"
	"github.com/roelfdiedericks/inappbrowser/internal/paths"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

type ConfigCmd struct {
	Init ConfigInitCmd `cmd:"" help:"Write a default iab.json."`
	Show ConfigShowCmd `cmd:"" help:"Print the effective configuration."`
}

type ConfigInitCmd struct {
	Path  string `arg:"" optional:"" type:"path" help:"Where to write (default ~/.iab/iab.json)."`
	Force bool   `help:"Overwrite an existing file without asking."`
}

func (c *ConfigInitCmd) Run() error {
	path := c.Path
	if path == "" {
		p, err := paths.DefaultConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	if _, err := os.Stat(path); err == nil && !c.Force {
		if !interactive() {
			return fmt.Errorf("%s exists, use --force to overwrite", path)
		}
		overwrite := false
		err := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title("Overwrite " + path + "?").
				Description("The current file is kept as a backup.").
				Value(&overwrite),
		)).Run()
		if err != nil || !overwrite {
			return err
		}
	}

	cfg := config.Default()
	if err := cfg.Save(path); err != nil {
		return err
	}
	fmt.Println(headerStyle.Render("wrote") + " " + path)
	return nil
}

type ConfigShowCmd struct{}

func (ConfigShowCmd) Run(cli *CLI) error {
	cfg, path, err := cli.load()
	if err != nil {
		return err
	}
	if path == "" {
		path = "(defaults)"
	}
	fmt.Fprintln(os.Stderr, dimStyle.Render("# "+path))
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}

type ProfilesCmd struct {
	List  ProfilesListCmd  `cmd:"" help:"List persistent profiles."`
	Clear ProfilesClearCmd `cmd:"" help:"Clear cookies, cache and storage of a profile."`
}

func profileManager(cli *CLI) (*browser.Manager, error) {
	cfg, _, err := cli.load()
	if err != nil {
		return nil, err
	}
	return browser.NewManager(cfg.Browser)
}

type ProfilesListCmd struct{}

func (ProfilesListCmd) Run(cli *CLI) error {
	mgr, err := profileManager(cli)
	if err != nil {
		return err
	}
	profiles, err := mgr.Profiles().ListProfiles()
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		fmt.Println(dimStyle.Render("no profiles in " + mgr.Profiles().Dir()))
		return nil
	}
	for _, p := range profiles {
		fmt.Printf("%s  %s  %s\n",
			headerStyle.Render(p.Name),
			browser.FormatSize(p.Size),
			dimStyle.Render(p.LastUsed.Format("2006-01-02 15:04")),
		)
	}
	return nil
}

type ProfilesClearCmd struct {
	Name string `arg:"" help:"Profile name."`
}

func (c *ProfilesClearCmd) Run(cli *CLI) error {
	mgr, err := profileManager(cli)
	if err != nil {
		return err
	}
	if !mgr.Profiles().ProfileExists(c.Name) {
		return fmt.Errorf("profile %q not found", c.Name)
	}
	if err := mgr.Profiles().ClearProfile(c.Name); err != nil {
		return err
	}
	fmt.Println(headerStyle.Render("cleared") + " " + c.Name)
	return nil
}
