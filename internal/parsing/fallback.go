package parsing

import (
	"github.com/t14raptor/go-fast/ast"
	"github.com/t14raptor/go-fast/parser"
)

// FallbackImports is the best-effort secondary import-resolution pass
// described in spec.md §4.4 step 3: alongside the tree-sitter pass, on every
// file, this walks a go-fast parse looking for CommonJS require(...) calls,
// and Parse unions its results with the tree-sitter imports. go-fast does not understand TypeScript
// syntax or ES module import/export statements reliably (it targets plain
// ES5/ES2020 JavaScript), so it can only ever recover require() targets,
// never import specifiers - that asymmetry is why this is a fallback, not
// the primary pass. Grounded on the teacher's
// internal/analysis/javascript_gofast_analyzer.go AnalyzeCalls/
// visitStatementForCalls/visitExpressionForCalls walk.
func FallbackImports(content []byte) []string {
	program, err := parser.ParseFile(string(content))
	if err != nil || program == nil {
		return nil
	}

	var out []string
	for _, stmt := range program.Body {
		if stmt.Stmt != nil {
			visitStatementForRequires(stmt.Stmt, &out)
		}
	}
	return out
}

func visitStatementForRequires(stmt ast.Stmt, out *[]string) {
	if stmt == nil {
		return
	}
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		if s.Expression != nil && s.Expression.Expr != nil {
			visitExpressionForRequires(s.Expression.Expr, out)
		}
	case *ast.BlockStatement:
		for _, bodyStmt := range s.List {
			if bodyStmt.Stmt != nil {
				visitStatementForRequires(bodyStmt.Stmt, out)
			}
		}
	case *ast.FunctionDeclaration:
		if s.Function != nil && s.Function.Body != nil {
			for _, bodyStmt := range s.Function.Body.List {
				if bodyStmt.Stmt != nil {
					visitStatementForRequires(bodyStmt.Stmt, out)
				}
			}
		}
	case *ast.VariableDeclaration:
		for _, decl := range s.List {
			if decl.Initializer != nil && decl.Initializer.Expr != nil {
				visitExpressionForRequires(decl.Initializer.Expr, out)
			}
		}
	case *ast.ReturnStatement:
		if s.Argument != nil && s.Argument.Expr != nil {
			visitExpressionForRequires(s.Argument.Expr, out)
		}
	case *ast.IfStatement:
		if s.Test != nil && s.Test.Expr != nil {
			visitExpressionForRequires(s.Test.Expr, out)
		}
		if s.Consequent.Stmt != nil {
			visitStatementForRequires(s.Consequent.Stmt, out)
		}
		if s.Alternate.Stmt != nil {
			visitStatementForRequires(s.Alternate.Stmt, out)
		}
	}
}

func visitExpressionForRequires(expr ast.Expr, out *[]string) {
	if expr == nil {
		return
	}
	switch e := expr.(type) {
	case *ast.CallExpression:
		if name := calleeName(e.Callee); name == "require" && len(e.ArgumentList) > 0 {
			if arg := e.ArgumentList[0].Expr; arg != nil {
				if lit, ok := arg.(*ast.StringLiteral); ok {
					*out = append(*out, lit.Value)
				}
			}
		}
		for _, arg := range e.ArgumentList {
			if arg.Expr != nil {
				visitExpressionForRequires(arg.Expr, out)
			}
		}
	case *ast.AwaitExpression:
		if e.Argument != nil && e.Argument.Expr != nil {
			visitExpressionForRequires(e.Argument.Expr, out)
		}
	}
}

func calleeName(callee *ast.Expression) string {
	if callee == nil || callee.Expr == nil {
		return ""
	}
	switch c := callee.Expr.(type) {
	case *ast.Identifier:
		return c.Name
	case *ast.MemberExpression:
		if c.Property != nil && c.Property.Prop != nil {
			if ident, ok := c.Property.Prop.(*ast.Identifier); ok {
				return ident.Name
			}
		}
	}
	return ""
}

// mergeImports unions the tree-sitter pass's imports with the fallback
// pass's require() targets, deduplicating and dropping empty/self
// references (spec.md §4.4 step 3: "union the two; drop self-loops;
// deduplicate" - self-loop removal happens later once sources are resolved
// to file paths, since that requires the caller's project root).
func mergeImports(primary []ImportRef, fallback []string) []ImportRef {
	seen := make(map[string]bool, len(primary)+len(fallback))
	out := make([]ImportRef, 0, len(primary)+len(fallback))
	for _, ref := range primary {
		if ref.Source == "" || seen[ref.Source] {
			continue
		}
		seen[ref.Source] = true
		out = append(out, ref)
	}
	for _, src := range fallback {
		if src == "" || seen[src] {
			continue
		}
		seen[src] = true
		out = append(out, ImportRef{Source: src})
	}
	return out
}
