package main

import (
	"context"
	"fmt"
	"io"
	"maps"
	"net/url"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/tirr-c/ruwuma"
	"github.com/tirr-c/ruwuma/clientapi"
)

type VersionCmd struct{}

func (c *VersionCmd) Run(e *env) error {
	fmt.Fprintln(e.out, Version())
	return nil
}

type EndpointsCmd struct{}

func (c *EndpointsCmd) Run(e *env) error {
	w := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tMETHOD\tAUTH\tRATE LIMITED\tPATH")
	for _, d := range clientapi.Catalogue() {
		md := d.Metadata()
		latest := md.History.Templates()[0]
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", d.Name(), md.Method, md.Authentication, md.RateLimited, latest)
	}
	return w.Flush()
}

type HistoryCmd struct {
	Endpoint string `arg:"" help:"Endpoint name, as listed by 'endpoints'."`
}

func (c *HistoryCmd) Run(e *env) error {
	d, err := lookup(c.Endpoint)
	if err != nil {
		return err
	}
	for _, entry := range d.Metadata().History.Entries() {
		fmt.Fprintln(e.out, formatEntry(entry))
	}
	return nil
}

// formatEntry prints entry in declaration syntax.
func formatEntry(entry ruwuma.HistoryEntry) string {
	v := entry.Token.Version
	switch entry.Token.Kind {
	case ruwuma.TokenUnstable:
		return "unstable => " + entry.Path.String()
	case ruwuma.TokenStable:
		return fmt.Sprintf("%d.%d => %s", v.Major, v.Minor, entry.Path)
	default:
		return fmt.Sprintf("%d.%d => %s", v.Major, v.Minor, entry.Token.Kind)
	}
}

type ResolveCmd struct {
	Endpoint string `arg:"" help:"Endpoint name, as listed by 'endpoints'."`
}

func (c *ResolveCmd) Run(e *env) error {
	d, err := lookup(c.Endpoint)
	if err != nil {
		return err
	}
	res, err := d.Metadata().Resolve(e.supported)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "%s %s\n", d.Metadata().Method, res.Path)
	fmt.Fprintf(e.out, "from: %s\n", res.Token)
	if res.Deprecated {
		v, _ := d.Metadata().DeprecatedIn()
		fmt.Fprintf(e.out, "deprecated since %s\n", v)
	}
	return nil
}

type URLCmd struct {
	Endpoint string            `arg:"" help:"Endpoint name, as listed by 'endpoints'."`
	Args     map[string]string `name:"arg" short:"a" help:"Request field as name=value. Repeatable."`
}

func (c *URLCmd) Run(e *env) error {
	d, err := lookup(c.Endpoint)
	if err != nil {
		return err
	}
	hr, err := d.BuildFromArgs(values(c.Args), e.cfg.Homeserver, e.cfg.Credential(), e.supported)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "%s %s\n", hr.Method, hr.URL)
	if hr.Body == nil {
		return nil
	}
	defer hr.Body.Close()
	body, err := io.ReadAll(hr.Body)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "%s\n", body)
	return nil
}

type CallCmd struct {
	Endpoint string            `arg:"" help:"Endpoint name, as listed by 'endpoints'."`
	Args     map[string]string `name:"arg" short:"a" help:"Request field as name=value. Repeatable."`
	Discover bool              `help:"Ask the homeserver for its versions first."`
}

func (c *CallCmd) Run(e *env) error {
	d, err := lookup(c.Endpoint)
	if err != nil {
		return err
	}
	cl, err := e.client()
	if err != nil {
		return err
	}
	ctx := context.Background()
	if c.Discover {
		if _, err := cl.DiscoverVersions(ctx); err != nil {
			return err
		}
	}
	body, err := cl.Do(ctx, d, values(c.Args))
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "%s\n", body)
	return nil
}

type DiscoverCmd struct{}

func (c *DiscoverCmd) Run(e *env) error {
	cl, err := e.client()
	if err != nil {
		return err
	}
	versions, err := cl.DiscoverVersions(context.Background())
	if err != nil {
		return err
	}
	supported := cl.SupportedVersions()
	names := make([]string, 0, len(supported.Versions))
	for _, v := range supported.Versions {
		names = append(names, v.String())
	}
	fmt.Fprintf(e.out, "versions: %s\n", strings.Join(names, ", "))
	for _, name := range slices.Sorted(maps.Keys(versions.UnstableFeatures)) {
		if versions.HasFeature(name) {
			fmt.Fprintf(e.out, "feature: %s\n", name)
		}
	}
	return nil
}

func lookup(name string) (ruwuma.Descriptor, error) {
	d, ok := clientapi.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown endpoint %q", name)
	}
	return d, nil
}

func values(args map[string]string) url.Values {
	out := make(url.Values, len(args))
	for k, v := range args {
		out.Set(k, v)
	}
	return out
}
