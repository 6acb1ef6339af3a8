// Package io renders bootstrap reports into user-facing presentations.
package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/EnigmaKM/LoLLCULiveAPISpike/cli/shared/lcu"
)

// Format identifies the output presenter used by the CLI.
type Format string

// Supported renderers.
const (
	FormatTable Format = "table"
	FormatPlain Format = "plain"
	FormatJSON  Format = "json"
)

// ParseFormat maps user input onto a presenter, defaulting to table.
func ParseFormat(value string) Format {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case FormatJSON:
		return FormatJSON
	case FormatPlain:
		return FormatPlain
	default:
		return FormatTable
	}
}

// Options customise the rendering of a report.
type Options struct {
	TraceID   string
	Presenter Format
}

// reportView is the JSON shape of a report; the token never appears in it.
type reportView struct {
	State       string      `json:"state"`
	Strategy    string      `json:"strategy,omitempty"`
	Client      *clientView `json:"client,omitempty"`
	Identity    string      `json:"identity,omitempty"`
	Phase       string      `json:"phase,omitempty"`
	InMatch     bool        `json:"in_match"`
	Participant string      `json:"participant,omitempty"`
	Stages      []stageView `json:"stages"`
	TraceID     string      `json:"trace_id,omitempty"`
}

type clientView struct {
	ProcessName string `json:"process_name"`
	ProcessID   int    `json:"process_id"`
	Port        int    `json:"port"`
	Protocol    string `json:"protocol"`
}

type stageView struct {
	Stage      string  `json:"stage"`
	DurationMS float64 `json:"duration_ms"`
	Error      string  `json:"error,omitempty"`
}

// Render generates a formatted representation of the bootstrap report.
func Render(report lcu.Report, opts Options) (string, error) {
	switch opts.Presenter {
	case FormatPlain:
		return renderPlain(report, opts), nil
	case FormatJSON:
		return renderJSON(report, opts)
	case FormatTable, "":
		return renderTable(report, opts)
	default:
		return "", fmt.Errorf("renderer: unsupported presenter %q", opts.Presenter)
	}
}

// RenderDescriptor formats a resolved descriptor without its token.
func RenderDescriptor(desc lcu.ConnectionDescriptor, strategy string, opts Options) (string, error) {
	return Render(lcu.Report{State: lcu.StateCredentialsResolved, Strategy: strategy, Descriptor: desc}, opts)
}

func newView(report lcu.Report, opts Options) reportView {
	view := reportView{
		State:       report.State.String(),
		Strategy:    report.Strategy,
		Identity:    report.Identity,
		Phase:       report.Phase,
		InMatch:     report.InMatch,
		Participant: report.Participant,
		Stages:      make([]stageView, 0, len(report.Stages)),
		TraceID:     opts.TraceID,
	}
	if !report.Descriptor.IsZero() {
		d := report.Descriptor
		view.Client = &clientView{
			ProcessName: d.ProcessName(),
			ProcessID:   d.ProcessID(),
			Port:        d.Port(),
			Protocol:    d.Protocol(),
		}
	}
	for _, s := range report.Stages {
		sv := stageView{Stage: s.Stage, DurationMS: float64(s.Duration.Microseconds()) / 1000}
		if s.Err != nil {
			sv.Error = s.Err.Error()
		}
		view.Stages = append(view.Stages, sv)
	}
	return view
}

func renderJSON(report lcu.Report, opts Options) (string, error) {
	data, err := json.MarshalIndent(newView(report, opts), "", "  ")
	if err != nil {
		return "", fmt.Errorf("renderer: marshal json: %w", err)
	}
	return string(data), nil
}

func renderPlain(report lcu.Report, opts Options) string {
	view := newView(report, opts)
	var buf bytes.Buffer
	if view.Client != nil {
		fmt.Fprintf(&buf, "%s\n", report.Descriptor)
	}
	if view.Identity != "" {
		fmt.Fprintf(&buf, "Username: %s\n", view.Identity)
	}
	if view.Phase != "" {
		fmt.Fprintf(&buf, "Phase: %s\n", view.Phase)
	}
	if report.State >= lcu.StateNotInMatch {
		if view.InMatch {
			buf.WriteString("In Game\n")
		} else {
			buf.WriteString("Not In Game\n")
		}
	}
	if view.Participant != "" {
		fmt.Fprintf(&buf, "In Game As: %s\n", view.Participant)
	}
	if buf.Len() == 0 {
		fmt.Fprintf(&buf, "State: %s\n", view.State)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func renderTable(report lcu.Report, opts Options) (string, error) {
	view := newView(report, opts)
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "State: %s\n", strings.ToUpper(view.State))
	if view.Strategy != "" {
		fmt.Fprintf(&buf, "Strategy: %s\n", view.Strategy)
	}
	if view.Client != nil {
		fmt.Fprintf(&buf, "Client: %s (pid %d) %s://127.0.0.1:%d\n", view.Client.ProcessName, view.Client.ProcessID, view.Client.Protocol, view.Client.Port)
	}
	if view.Identity != "" {
		fmt.Fprintf(&buf, "Identity: %s\n", view.Identity)
	}
	if view.Phase != "" {
		fmt.Fprintf(&buf, "Gameflow Phase: %s\n", view.Phase)
	}
	if report.State >= lcu.StateNotInMatch {
		fmt.Fprintf(&buf, "In Match: %s\n", yesNo(view.InMatch))
	}
	if view.Participant != "" {
		fmt.Fprintf(&buf, "Participant: %s\n", view.Participant)
	}
	if view.TraceID != "" {
		fmt.Fprintf(&buf, "Trace ID: %s\n", view.TraceID)
	}

	if len(view.Stages) > 0 {
		buf.WriteString("\n")
		tw := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)
		if _, err := fmt.Fprintln(tw, "STAGE\tRESULT\tDURATION\tDETAILS"); err != nil {
			return "", err
		}
		for _, s := range view.Stages {
			result := "OK"
			if s.Error != "" {
				result = "FAILED"
			}
			if _, err := fmt.Fprintf(tw, "%s\t%s\t%.1fms\t%s\n", s.Stage, result, s.DurationMS, s.Error); err != nil {
				return "", err
			}
		}
		if err := tw.Flush(); err != nil {
			return "", err
		}
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
