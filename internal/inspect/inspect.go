// Package inspect provides the interactive inspection shell over a compiled
// frontend: a readline loop for querying FIRST and FOLLOW sets, the LL(1)
// parse table, and the token machines without running a compile.
package inspect

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/dekarrin/rosed"

	"github.com/dekarrin/pike"
	"github.com/dekarrin/pike/internal/lex"
)

const helpText = "" +
	"machines          list the token machines\n" +
	"keywords          list the keyword table\n" +
	"first <nonterm>   show FIRST of a nonterminal\n" +
	"follow <nonterm>  show FOLLOW of a nonterminal\n" +
	"table             show the LL(1) parse table\n" +
	"help              show this message\n" +
	"quit              leave the inspector"

// Run starts the inspection shell over f, writing results to out. It returns
// when the user quits or input reaches EOF.
func Run(f *pike.Frontend, out io.Writer) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt: "pc> ",
	})
	if err != nil {
		return fmt.Errorf("create readline config: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		cmd := strings.ToLower(fields[0])
		switch cmd {
		case "quit", "exit":
			return nil
		case "help":
			fmt.Fprintln(out, helpText)
		case "machines":
			fmt.Fprintln(out, machineTable(f.Lexer))
		case "keywords":
			fmt.Fprintln(out, keywordTable(f.Lexer))
		case "table":
			fmt.Fprintln(out, f.Table.String())
		case "first", "follow":
			if len(fields) < 2 {
				fmt.Fprintf(out, "usage: %s <nonterminal>\n", cmd)
				continue
			}
			name := fields[1]
			if !strings.HasPrefix(name, "<") {
				name = "<" + name + ">"
			}
			pda := f.Grammar.PDA(name)
			if pda == nil {
				fmt.Fprintf(out, "no nonterminal %s\n", name)
				continue
			}
			if cmd == "first" {
				fmt.Fprintf(out, "FIRST(%s) = %s\n", name, pda.Firsts.StringOrdered())
			} else {
				fmt.Fprintf(out, "FOLLOW(%s) = %s\n", name, pda.Follows.StringOrdered())
			}
		default:
			fmt.Fprintf(out, "unknown command %q; try \"help\"\n", cmd)
		}
	}
}

// machineTable renders the machine list with flags and kinds.
func machineTable(lx *lex.Lexer) string {
	data := [][]string{{"Machine", "Kind", "Flags", "LexLen"}}
	for _, m := range lx.Machines() {
		var flags []string
		if m.AttrID {
			flags = append(flags, "idtype")
		}
		if m.Composite {
			flags = append(flags, "composite")
		}
		if m.TypeCount {
			flags = append(flags, "typecount")
		}
		data = append(data, []string{
			m.Name,
			fmt.Sprintf("%d", m.Tok.Kind),
			strings.Join(flags, ","),
			fmt.Sprintf("%d", m.LexLen),
		})
	}

	return rosed.
		Edit("").
		InsertTableOpts(0, data, 60, rosed.Options{
			TableHeaders:             true,
			NoTrailingLineSeparators: true,
		}).
		String()
}

// keywordTable renders the keyword table.
func keywordTable(lx *lex.Lexer) string {
	data := [][]string{{"Keyword", "Kind"}}
	lx.Keywords().Walk(func(str string, tdat lex.TData) {
		data = append(data, []string{str, fmt.Sprintf("%d", tdat.Kind)})
	})

	return rosed.
		Edit("").
		InsertTableOpts(0, data, 30, rosed.Options{
			TableHeaders:             true,
			NoTrailingLineSeparators: true,
		}).
		String()
}
