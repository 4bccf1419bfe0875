// Copyright (C) 2026 The qrlcd Authors. All rights reserved.
// Use of this source code is governed by an MIT-style license that can be
// found in the LICENSE file.

package matrix

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Macro wraps every byte literal so the C array can reorder bits at compile
// time.
const Macro = "MSB2LSB"

var tokenRe = regexp.MustCompile(Macro + `\(\s*(0[xX][0-9a-fA-F]+)\s*\)`)

// Hex formats b as a lowercase, unpadded hex literal ("0x0", "0x1f").
func Hex(b byte) string {
	return "0x" + strconv.FormatUint(uint64(b), 16)
}

// HexValues flattens pages into hex literals, page by page.
func HexValues(pages [][]byte) []string {
	var res []string
	for _, page := range pages {
		for _, b := range page {
			res = append(res, Hex(b))
		}
	}
	return res
}

// Join wraps each value in the MSB2LSB macro and separates them with ", ".
// A newline follows the separator after every perLine values. Nothing follows
// the last value.
func Join(values []string, perLine int) string {
	var sb strings.Builder
	for i, v := range values {
		fmt.Fprintf(&sb, "%s(%s)", Macro, v)
		if i == len(values)-1 {
			break
		}
		sb.WriteString(", ")
		if perLine > 0 && (i+1)%perLine == 0 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// FormatTokens renders packed pages as the C array argument string, one page
// per line.
func FormatTokens(pages [][]byte) string {
	return Join(HexValues(pages), Size)
}

// ParseTokens extracts the byte values of every MSB2LSB(0x..) token in text.
func ParseTokens(text string) ([]byte, error) {
	matches := tokenRe.FindAllStringSubmatch(text, -1)
	res := make([]byte, 0, len(matches))
	for _, m := range matches {
		v, err := strconv.ParseUint(m[1][2:], 16, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid token '%s': %w", m[0], err)
		}
		res = append(res, byte(v))
	}
	return res, nil
}

// SplitPages groups a flat token stream back into display pages.
func SplitPages(values []byte) ([][]byte, error) {
	if len(values) != Pages*Size {
		return nil, fmt.Errorf("expected %d values, got %d", Pages*Size, len(values))
	}
	pages := make([][]byte, Pages)
	for g := range pages {
		pages[g] = values[g*Size : (g+1)*Size]
	}
	return pages, nil
}

// FormatCArray renders pages as a complete qr_code_t initializer.
func FormatCArray(name string, pages [][]byte) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "const qr_code_t %s[] = {\n", name)
	sb.WriteString("    {\n")
	sb.WriteString("        .value = {\n")
	for _, page := range pages {
		sb.WriteString("            { ")
		for i, b := range page {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s(%s)", Macro, Hex(b))
		}
		sb.WriteString(" },\n")
	}
	sb.WriteString("        },\n")
	sb.WriteString("    },\n")
	sb.WriteString("};\n")
	return sb.String()
}
