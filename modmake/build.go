package main

import (
	. "github.com/saylorsolutions/modmake"
)

const (
	appName    = "securecast"
	appVersion = "1.0.0"
)

var platforms = [][2]string{
	{"windows", "amd64"},
	{"linux", "amd64"},
	{"linux", "arm64"},
	{"darwin", "amd64"},
	{"darwin", "arm64"},
}

func main() {
	b := NewBuild()
	b.Generate().DependsOnRunner("tidy", "", Go().ModTidy())
	b.Test().Does(Go().TestAll())

	app := NewAppBuild(appName, "cmd/"+appName, appVersion)
	app.Build(func(gb *GoBuild) {
		gb.
			StripDebugSymbols().
			SetVariable("main", "version", appVersion).
			CgoEnabled(false)
	})
	for _, p := range platforms {
		app.Variant(p[0], p[1])
	}
	b.ImportApp(app)

	b.Execute()
}
