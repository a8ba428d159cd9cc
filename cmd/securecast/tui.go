package main

import (
	"errors"
	"fmt"
	"github.com/rivo/tview"
	"github.com/saylorsolutions/securecast/cmd/internal"
	"github.com/saylorsolutions/securecast/pkg/sealfile"
	"strings"
)

const (
	fileLabel     = "File"
	passwordLabel = "Password"
	resultPage    = "result"
	mainPage      = "main"
)

// tui is the interactive front end. Its fields are only touched from the tview event loop.
type tui struct {
	app    *tview.Application
	pages  *tview.Pages
	form   *tview.Form
	status *tview.TextView
	codec  *sealfile.Codec
	cfg    internal.Config
	busy   bool
}

func runTUI(codec *sealfile.Codec, cfg internal.Config) error {
	t := newTUI(codec, cfg)
	return t.app.SetRoot(t.pages, true).EnableMouse(true).Run()
}

func newTUI(codec *sealfile.Codec, cfg internal.Config) *tui {
	t := &tui{
		app:    tview.NewApplication(),
		pages:  tview.NewPages(),
		form:   tview.NewForm(),
		status: tview.NewTextView(),
		codec:  codec,
		cfg:    cfg,
	}
	t.form.
		AddInputField(fileLabel, "", 60, nil, nil).
		AddPasswordField(passwordLabel, "", 60, '*', nil).
		AddButton("Encrypt", func() { t.start(modeEncrypt) }).
		AddButton("Decrypt", func() { t.start(modeDecrypt) }).
		AddButton("Quit", t.app.Stop)
	t.form.SetBorder(true).SetTitle(" SecureCast ").SetTitleAlign(tview.AlignLeft)
	t.status.SetDynamicColors(true).SetTextAlign(tview.AlignCenter)
	t.setStatus("[gray]Enter a file path and password")

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(t.form, 0, 1, true).
		AddItem(t.status, 1, 0, false)
	t.pages.AddPage(mainPage, layout, true, true)
	return t
}

func (t *tui) fieldText(label string) string {
	item := t.form.GetFormItemByLabel(label)
	if field, ok := item.(*tview.InputField); ok {
		return field.GetText()
	}
	return ""
}

func (t *tui) setStatus(text string) {
	t.status.SetText(text)
}

// start validates the form and runs the job on a separate goroutine.
// Only one job runs at a time, so two jobs never write the same output.
func (t *tui) start(m mode) {
	if t.busy {
		return
	}
	j, pass, err := t.prepare(m)
	if err != nil {
		t.showResult("Notice", noticeText(err))
		return
	}

	t.busy = true
	t.setStatus(fmt.Sprintf("[yellow]Running %s...", m))
	go func() {
		err := j.run(t.codec, pass, nil, nil)
		sealfile.ZeroBytes(pass)
		t.app.QueueUpdateDraw(func() {
			t.finish(j, err)
		})
	}()
}

func (t *tui) prepare(m mode) (job, sealfile.Passphrase, error) {
	in := t.fieldText(fileLabel)
	if in == stdio {
		return job{}, nil, fmt.Errorf("%w: a file path is required", internal.ErrUsage)
	}
	j, err := planJob(m, in, "", t.cfg)
	if err != nil {
		return job{}, nil, err
	}
	pass := sealfile.Passphrase(t.fieldText(passwordLabel))
	if len(pass) == 0 {
		return job{}, nil, errEmptyPassphrase
	}
	return j, pass, nil
}

func (t *tui) finish(j job, err error) {
	t.busy = false
	if err != nil {
		t.setStatus("[red]Failed")
		t.showResult("Error", sealfile.UserMessage(err))
		return
	}
	t.setStatus("[green]Done")
	if field, ok := t.form.GetFormItemByLabel(passwordLabel).(*tview.InputField); ok {
		field.SetText("")
	}
	t.showResult("Done", fmt.Sprintf("Output file created:\n%s", j.out))
}

func (t *tui) showResult(title, msg string) {
	modal := tview.NewModal().
		SetText(title + "\n\n" + msg).
		AddButtons([]string{"OK"}).
		SetDoneFunc(func(int, string) {
			t.pages.RemovePage(resultPage)
			t.app.SetFocus(t.form)
		})
	t.pages.AddPage(resultPage, modal, false, true)
	t.app.SetFocus(modal)
}

// noticeText describes a validation problem found before any work was started.
func noticeText(err error) string {
	if errors.Is(err, internal.ErrUsage) || errors.Is(err, errEmptyPassphrase) {
		return strings.TrimPrefix(err.Error(), internal.ErrUsage.Error()+": ")
	}
	return sealfile.UserMessage(err)
}
