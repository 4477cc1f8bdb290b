// Package recipes builds recipe books and renders single recipes inside
// containers.
//
// Every operation is a short pipeline of four stages:
//
//  1. Provision an environment: a base image plus apk packages.
//  2. Acquire the tool: download a release binary (chef, cooklatex) or
//     compile a vendored Rust source tree (book-builder).
//  3. Attach the caller's source directory at a fixed path and make it the
//     working directory.
//  4. Run the tool, and for books run tectonic on its LaTeX output.
//
// The stages only compose [pipeline.Container] lineages; a
// [pipeline.Engine] runs them. [Service] ties the lineages to an engine
// and exposes the three operations: [Service.GetPDF],
// [Service.GetMarkdown] and [Service.ReadRecipe].
//
// A source directory may carry a book.yaml manifest choosing the LaTeX
// template, collections, output directory and compiler. Without one the
// book is built from ./Dinner with the .template directory, which is the
// layout the cooklatex template repository ships with.
//
// Example usage:
//
//	svc := recipes.New(engine, recipes.Options{})
//
//	pdf, err := svc.GetPDF(ctx, "./cookbook", "cookbook.pdf")
//	if err != nil {
//	    return err
//	}
//
//	md, err := svc.GetMarkdown(ctx, "./cookbook", "Dinner/Lasagna.cook", nil)
package recipes
