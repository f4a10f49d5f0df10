package mcpserver

// DocumentFormatContract describes the Markdown conventions a tikibase
// enforces, for LLM consumers that read or propose changes to documents.
const DocumentFormatContract = `# Tikibase Document Format

Every Markdown document in a tikibase follows these rules.

## Structure

` + "```" + `markdown
# Title of the document

Introductory text with [links](other.md) to related documents.

## section title

Section content.

### occurrences

- [Other document](other.md)
` + "```" + `

## Rules

1. **Title section.** The first heading is a level-1 heading (` + "`# `" + `) and names the document.
2. **Sections** are ATX headings (` + "`##`" + ` to ` + "`######`" + `). The same title uses the same
   capitalization and the same level in every document.
3. **Allowed sections.** When ` + "`tikibase.json`" + ` lists ` + "`sections`" + `, only those titles may be
   used, in that order. Empty sections are removed.
4. **Links** are Markdown links or HTML ` + "`<a href>`" + ` tags with relative paths. Anchors
   (` + "`file.md#section`" + `) must name an existing section. Links may not leave the tikibase.
5. **Occurrences.** With ` + "`bidiLinks`" + ` enabled, each document lists the documents that link to
   it but that it does not link back to, in a trailing ` + "`### occurrences`" + ` section, and no
   other document. This section is maintained by ` + "`tikibase fix`" + `; do not edit it by hand.
6. **Sources and footnotes.** A citation ` + "`[1]`" + ` needs a ` + "`1. `" + ` source line; every footnote
   ` + "`[^x]`" + ` needs a ` + "`[^x]:`" + ` definition and every definition must be used.
7. **Resources** (images and other files) must be referenced by at least one document.

Use the ` + "`check`" + ` tool to list violations and ` + "`fix`" + ` to repair the fixable ones.
`
