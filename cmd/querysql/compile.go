package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	domainquery "github.com/typexs/typexs-base-sub000/typexs/expression/domain/query"
	"github.com/typexs/typexs-base-sub000/typexs/expression/infrastructure/query"
)

type compileOptions struct {
	*rootOptions
	schema     string
	entity     string
	dialect    string
	mode       string
	pipeline   bool
	positional bool
}

func newCompileCommand(root *rootOptions) *cobra.Command {
	opts := &compileOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "compile <query.json|->",
		Short: "Compile a query document against a schema",
		Long: `Compile a JSON query document into a parameterized SQL predicate.

With --pipeline the document is compiled into a complete SELECT statement,
$match stages after a $group ending up in HAVING.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.schema, "schema", "", "YAML schema file")
	cmd.Flags().StringVar(&opts.entity, "entity", "", "root entity of the query")
	cmd.Flags().StringVar(&opts.dialect, "dialect", "postgres", "SQL dialect (postgres|sqlite|mysql)")
	cmd.Flags().StringVar(&opts.mode, "mode", "where", "predicate mode (where|having)")
	cmd.Flags().BoolVar(&opts.pipeline, "pipeline", false, "compile a full SELECT statement")
	cmd.Flags().BoolVar(&opts.positional, "positional", false, "bind parameters to dialect placeholders")
	_ = cmd.MarkFlagRequired("schema")
	_ = cmd.MarkFlagRequired("entity")

	return cmd
}

type predicateOutput struct {
	Query  string         `json:"query"`
	Joins  []string       `json:"joins,omitempty"`
	Params map[string]any `json:"params,omitempty"`
	Args   []any          `json:"args,omitempty"`
}

type selectOutput struct {
	SQL    string         `json:"sql"`
	Count  string         `json:"count"`
	Params map[string]any `json:"params,omitempty"`
	Args   []any          `json:"args,omitempty"`
}

func runCompile(cmd *cobra.Command, opts *compileOptions, input string) error {
	logger := opts.logger(cmd)

	dialect, err := query.DialectByName(opts.dialect)
	if err != nil {
		return err
	}
	mode, err := query.ParseMode(opts.mode)
	if err != nil {
		return err
	}
	schema, err := query.LoadSchemaFile(opts.schema)
	if err != nil {
		return err
	}
	logger.Debug("schema loaded", "path", opts.schema, "entities", len(schema.Entities()))

	root, err := readQuery(cmd, input)
	if err != nil {
		return err
	}

	if opts.pipeline {
		sel, err := query.CompilePipeline(schema, opts.entity, root, query.WithDialect(dialect))
		if err != nil {
			return err
		}
		out := selectOutput{SQL: sel.SQL(), Count: sel.CountSQL(), Params: sel.Params}
		if opts.positional {
			out.SQL, out.Args = query.Bind(out.SQL, sel.Params, dialect)
			out.Count, _ = query.Bind(out.Count, sel.Params, dialect)
			out.Params = nil
		}
		logger.Debug("pipeline compiled", "joins", len(sel.Joins), "params", len(sel.Params))
		return writeSelect(cmd.OutOrStdout(), opts.format, out)
	}

	res, err := query.NewBuilder(schema, opts.entity,
		query.WithDialect(dialect),
		query.WithMode(mode),
	).Build(root)
	if err != nil {
		return err
	}
	out := predicateOutput{Query: res.Query, Params: res.Params}
	for _, j := range res.Joins {
		out.Joins = append(out.Joins, j.SQL())
	}
	if opts.positional {
		out.Query, out.Args = query.Bind(res.Query, res.Params, dialect)
		out.Params = nil
	}
	logger.Debug("predicate compiled", "mode", mode, "joins", len(res.Joins), "params", len(res.Params))
	return writePredicate(cmd.OutOrStdout(), opts.format, mode, out)
}

func readQuery(cmd *cobra.Command, input string) (domainquery.Node, error) {
	var data []byte
	var err error
	if input == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(input)
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading query")
	}
	return domainquery.ParseJSON(data)
}

func writePredicate(w io.Writer, format string, mode query.Mode, out predicateOutput) error {
	if format == "json" {
		return writeJSON(w, out)
	}
	for _, j := range out.Joins {
		fmt.Fprintln(w, j)
	}
	if out.Query != "" {
		fmt.Fprintln(w, strings.ToUpper(mode.String()), out.Query)
	}
	return writeParams(w, out.Params, out.Args)
}

func writeSelect(w io.Writer, format string, out selectOutput) error {
	if format == "json" {
		return writeJSON(w, out)
	}
	fmt.Fprintln(w, out.SQL)
	return writeParams(w, out.Params, out.Args)
}

func writeParams(w io.Writer, params map[string]any, args []any) error {
	for _, name := range query.ParamNames(params) {
		if err := writeParam(w, name, params[name]); err != nil {
			return err
		}
	}
	for i, arg := range args {
		if err := writeParam(w, strconv.Itoa(i+1), arg); err != nil {
			return err
		}
	}
	return nil
}

func writeParam(w io.Writer, name string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "-- %s: %s\n", name, b)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newNormalizeCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <query.json|->",
		Short: "Print a query document with implicit equality made explicit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := readQuery(cmd, args[0])
			if err != nil {
				return err
			}
			doc, err := domainquery.ToDocument(n)
			if err != nil {
				return err
			}
			root.logger(cmd).Debug("query normalized", "kind", n.Kind())
			b, err := json.Marshal(doc)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\n", b)
			return err
		},
	}
}
