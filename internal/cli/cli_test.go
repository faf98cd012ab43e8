package cli

import (
	"path/filepath"
	"testing"

	"floodbatch/internal/config"
	"floodbatch/internal/domain"
)

func TestSelectScenarios(t *testing.T) {
	app := &App{cfg: &config.Config{
		Scenarios: []domain.Scenario{
			{Name: "rp10"}, {Name: "rp100"}, {Name: "rp500"},
		},
	}}

	all, err := app.selectScenarios(nil)
	if err != nil || len(all) != 3 {
		t.Fatalf("selectScenarios(nil) = (%v, %v), want all 3", all, err)
	}

	picked, err := app.selectScenarios([]string{"rp500", "rp10"})
	if err != nil {
		t.Fatalf("selectScenarios() error = %v", err)
	}
	if len(picked) != 2 || picked[0].Name != "rp500" || picked[1].Name != "rp10" {
		t.Errorf("selectScenarios() = %v", picked)
	}

	if _, err := app.selectScenarios([]string{"rp9999"}); err == nil {
		t.Error("selectScenarios() accepted an unknown scenario")
	}
}

func TestSavePath(t *testing.T) {
	// defaults apply when the config came from nowhere (check --save
	// before init must not write to "")
	app := &App{}
	if got := app.savePath(); got != config.ConfigFileName {
		t.Errorf("savePath() = %q, want %q", got, config.ConfigFileName)
	}

	app.cfgFile = "/etc/floodbatch/batch.yaml"
	if got := app.savePath(); got != "/etc/floodbatch/batch.yaml" {
		t.Errorf("savePath() = %q, want loaded path", got)
	}
}

func TestInitCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "floodbatch.yaml")

	app := &App{}
	root := newRootCmd(app)
	root.SetArgs([]string{"init", "--config", path})
	if err := root.Execute(); err != nil {
		t.Fatalf("init error = %v", err)
	}

	cfg, _, err := config.LoadFromPath(path)
	if err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	if cfg.Version == 0 {
		t.Error("written config has no version")
	}

	// refuses to clobber without --force
	app2 := &App{}
	root2 := newRootCmd(app2)
	root2.SetArgs([]string{"init", "--config", path})
	if err := root2.Execute(); err == nil {
		t.Error("init overwrote an existing config without --force")
	}

	root3 := newRootCmd(&App{})
	root3.SetArgs([]string{"init", "--config", path, "--force"})
	if err := root3.Execute(); err != nil {
		t.Errorf("init --force error = %v", err)
	}
}

func TestRegistryHasBothEngines(t *testing.T) {
	app := &App{cfg: &config.Config{
		Engine: config.EngineConfig{Name: "lisflood", Executable: "lisflood"},
	}}
	if err := app.initLogger(); err != nil {
		t.Fatal(err)
	}

	names := app.registry().Names()
	if len(names) != 2 || names[0] != "hecras" || names[1] != "lisflood" {
		t.Errorf("registry names = %v", names)
	}
	if _, err := app.selectedEngine(); err != nil {
		t.Errorf("selectedEngine() error = %v", err)
	}
}
