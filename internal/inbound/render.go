// Copyright 2025 The go-yaml Project Contributors
// SPDX-License-Identifier: Apache-2.0

package inbound

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/chaos/lnetyaml/internal/attr"
	"github.com/chaos/lnetyaml/internal/schema"
)

// intakeValue renders one value batch — the attributes at positions
// 1..max_index of the root schema level — into YAML text, appended to
// the read queue. Each value message is a self-contained pass starting
// at the root: nothing about cursor position survives across messages
// except the root group label (spec §4.C, "the label ... is emitted
// once; subsequent root-level labels are suppressed").
func (tc *Transcoder) intakeValue(body []byte) error {
	raws, err := attr.Split(body)
	if err != nil {
		return fmt.Errorf("lnetyaml: value message: %w", err)
	}
	root := tc.tree.Root()
	if root == -1 {
		return errors.New("lnetyaml: value message arrived before any schema message")
	}
	node, err := tc.tree.Node(root)
	if err != nil {
		return err
	}
	if len(node.Keys) < 2 {
		return errors.New("lnetyaml: root schema declares no group label at index 1")
	}

	if node.Keys[1].Format.Flow() {
		text, err := tc.renderRootFlow(root, node, raws)
		if err != nil {
			return err
		}
		tc.queue = append(tc.queue, text...)
		return nil
	}

	lines, err := tc.walkBlock(root, raws, 0, true)
	if err != nil {
		return err
	}
	tc.queue = append(tc.queue, lines...)
	return nil
}

// walkBlock renders one schema level in block style: indented lines,
// one per populated key, recursing into nested keys and wrapping a
// SEQUENCE-formatted nested key's element groups with a leading `- `
// on each element's first line.
//
// For the root level only, index 1 is the group label rather than an
// ordinary key: it supplies the line `<label>:` once per session (spec
// §4.C), after which every other root key renders two columns deeper.
func (tc *Transcoder) walkBlock(nodeIdx int, raws []attr.Raw, indent int, isRoot bool) ([]byte, error) {
	node, err := tc.tree.Node(nodeIdx)
	if err != nil {
		return nil, err
	}

	var out []byte
	pos := 0
	childOrdinal := 0

	for i := 1; i < node.MaxIndex; i++ {
		desc := node.Keys[i]

		if isRoot && i == 1 {
			label := desc.Name
			if pos < len(raws) && raws[pos].Tag == uint16(i) {
				v, err := attr.Decode(raws[pos], attr.KindNulString)
				if err != nil {
					return out, fmt.Errorf("lnetyaml: root label: %w", err)
				}
				label = v.String()
				pos++
			}
			tc.rootLabel = label
			if !tc.rootLabelSet {
				out = append(out, fmtLine(indent, label+":")...)
				tc.rootIndentBonus = 2
				tc.rootLabelSet = true
			}
			continue
		}

		keyIndent := indent
		if isRoot {
			keyIndent += tc.rootIndentBonus
		}

		if desc.DataType == attr.KindNested {
			ordinal := childOrdinal
			childOrdinal++
			if pos >= len(raws) || raws[pos].Tag != uint16(i) {
				continue
			}
			raw := raws[pos]
			pos++

			child, err := tc.tree.ChildOf(nodeIdx, ordinal)
			if err != nil {
				return out, fmt.Errorf("lnetyaml: key %q: %w", desc.Name, err)
			}
			childRaws, err := attr.Split(raw.Data)
			if err != nil {
				return out, fmt.Errorf("lnetyaml: key %q: %w", desc.Name, err)
			}

			if desc.Format.Sequence() {
				out = append(out, fmtLine(keyIndent, desc.Name+":")...)
				childNode, err := tc.tree.Node(child)
				if err != nil {
					return out, err
				}
				groupSize := childNode.MaxIndex - 1
				if groupSize <= 0 {
					continue
				}
				// Block SEQUENCE advances indentation by 2 for the
				// key's own children, same as MAPPING, then each
				// element's `- ` eats two more columns of its own
				// content's indent (spec.md §8 S2: `nets:` at 2,
				// `- nid:` at 4, sibling fields at 6).
				elemIndent := keyIndent + 4
				for gp := 0; gp+groupSize <= len(childRaws); gp += groupSize {
					group := childRaws[gp : gp+groupSize]
					elemLines, err := tc.walkBlock(child, group, elemIndent, false)
					if err != nil {
						return out, err
					}
					out = append(out, markFirstLineAsSequenceItem(elemLines, elemIndent)...)
				}
			} else {
				out = append(out, fmtLine(keyIndent, desc.Name+":")...)
				childLines, err := tc.walkBlock(child, childRaws, keyIndent+2, false)
				if err != nil {
					return out, err
				}
				out = append(out, childLines...)
			}
			continue
		}

		if pos >= len(raws) || raws[pos].Tag != uint16(i) {
			if desc.HasDefault {
				out = append(out, fmtLine(keyIndent, desc.Name+": "+desc.Default)...)
			}
			continue
		}
		raw := raws[pos]
		pos++

		v, err := attr.Decode(raw, desc.DataType)
		if err != nil {
			if errors.Is(err, attr.ErrSkip) {
				continue
			}
			return out, fmt.Errorf("lnetyaml: key %q: %w", desc.Name, err)
		}
		out = append(out, fmtLine(keyIndent, desc.Name+": "+scalarText(desc.DataType, v))...)
	}
	return out, nil
}

// renderRootFlow renders the whole value batch as a single flow-style
// line: `<label>: { ...entries... }` (or `[ ... ]` if the label key
// also carries SequenceFlag), per the S3 scenario.
func (tc *Transcoder) renderRootFlow(root int, node *schema.Node, raws []attr.Raw) ([]byte, error) {
	entries, err := tc.walkFlow(root, raws, true)
	if err != nil {
		return nil, err
	}
	open, close := "{", "}"
	if node.Keys[1].Format.Sequence() {
		open, close = "[", "]"
	}
	var b strings.Builder
	b.WriteString(tc.rootLabel)
	b.WriteString(": ")
	b.WriteString(open)
	if len(entries) > 0 {
		b.WriteString(" ")
		b.WriteString(strings.Join(entries, ", "))
		b.WriteString(" ")
	}
	b.WriteString(close)
	b.WriteString("\n")
	return []byte(b.String()), nil
}

// walkFlow renders one schema level's populated keys as a list of
// "name: value" (or "name: { ... }"/"name: [ ... ]") entry strings, for
// the caller to join with ", " and wrap in its own bracket. Flow mode
// flattens every element of a SEQUENCE-formatted nested key into the
// same entry list rather than bracketing each element separately —
// the S3 scenario shows a single-element sequence rendered this way,
// and nothing in the distilled wire format distinguishes a
// multi-element flow sequence from a multi-field flow mapping, so the
// two are treated alike here.
func (tc *Transcoder) walkFlow(nodeIdx int, raws []attr.Raw, isRoot bool) ([]string, error) {
	node, err := tc.tree.Node(nodeIdx)
	if err != nil {
		return nil, err
	}

	var entries []string
	pos := 0
	childOrdinal := 0

	for i := 1; i < node.MaxIndex; i++ {
		desc := node.Keys[i]

		if isRoot && i == 1 {
			label := desc.Name
			if pos < len(raws) && raws[pos].Tag == uint16(i) {
				v, err := attr.Decode(raws[pos], attr.KindNulString)
				if err != nil {
					return entries, fmt.Errorf("lnetyaml: root label: %w", err)
				}
				label = v.String()
				pos++
			}
			tc.rootLabel = label
			continue
		}

		if desc.DataType == attr.KindNested {
			ordinal := childOrdinal
			childOrdinal++
			if pos >= len(raws) || raws[pos].Tag != uint16(i) {
				continue
			}
			raw := raws[pos]
			pos++

			child, err := tc.tree.ChildOf(nodeIdx, ordinal)
			if err != nil {
				return entries, fmt.Errorf("lnetyaml: key %q: %w", desc.Name, err)
			}
			childRaws, err := attr.Split(raw.Data)
			if err != nil {
				return entries, fmt.Errorf("lnetyaml: key %q: %w", desc.Name, err)
			}

			var inner []string
			if desc.Format.Sequence() {
				childNode, err := tc.tree.Node(child)
				if err != nil {
					return entries, err
				}
				groupSize := childNode.MaxIndex - 1
				for gp := 0; groupSize > 0 && gp+groupSize <= len(childRaws); gp += groupSize {
					group := childRaws[gp : gp+groupSize]
					elemEntries, err := tc.walkFlow(child, group, false)
					if err != nil {
						return entries, err
					}
					inner = append(inner, elemEntries...)
				}
			} else {
				inner, err = tc.walkFlow(child, childRaws, false)
				if err != nil {
					return entries, err
				}
			}

			open, close := "{", "}"
			if desc.Format.Sequence() {
				open, close = "[", "]"
			}
			var b strings.Builder
			b.WriteString(desc.Name)
			b.WriteString(": ")
			b.WriteString(open)
			if len(inner) > 0 {
				b.WriteString(" ")
				b.WriteString(strings.Join(inner, ", "))
				b.WriteString(" ")
			}
			b.WriteString(close)
			entries = append(entries, b.String())
			continue
		}

		if pos >= len(raws) || raws[pos].Tag != uint16(i) {
			if desc.HasDefault {
				entries = append(entries, desc.Name+": "+desc.Default)
			}
			continue
		}
		raw := raws[pos]
		pos++

		v, err := attr.Decode(raw, desc.DataType)
		if err != nil {
			if errors.Is(err, attr.ErrSkip) {
				continue
			}
			return entries, fmt.Errorf("lnetyaml: key %q: %w", desc.Name, err)
		}
		entries = append(entries, desc.Name+": "+scalarText(desc.DataType, v))
	}
	return entries, nil
}

func fmtLine(indent int, text string) []byte {
	return []byte(strings.Repeat(" ", indent) + text + "\n")
}

// markFirstLineAsSequenceItem replaces the two indent spaces
// immediately before an element's first line with `- ` (spec §4.C,
// "Block SEQUENCE: each child line is prefixed by replacing two
// spaces before its content with `- `" — applied only to an element's
// first line, never its siblings).
func markFirstLineAsSequenceItem(lines []byte, indent int) []byte {
	if indent < 2 || len(lines) < indent {
		return lines
	}
	out := make([]byte, len(lines))
	copy(out, lines)
	copy(out[indent-2:indent], []byte("- "))
	return out
}

func scalarText(k attr.Kind, v attr.Value) string {
	switch k {
	case attr.KindU16, attr.KindU32, attr.KindU64:
		return strconv.FormatUint(v.U, 10)
	case attr.KindS16, attr.KindS32, attr.KindS64:
		return strconv.FormatInt(v.S, 10)
	default:
		return v.String()
	}
}
