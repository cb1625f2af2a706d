package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

func openZip(data []byte) (*zip.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("archive Office illisible: %w", err)
	}
	return zr, nil
}

func zipEntry(zr *zip.Reader, name string) ([]byte, bool) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, false
		}
		defer rc.Close()
		b, err := io.ReadAll(rc)
		return b, err == nil
	}
	return nil, false
}

// docxText walks word/document.xml, keeping the runs' text and one line per paragraph.
func docxText(data []byte) (string, error) {
	zr, err := openZip(data)
	if err != nil {
		return "", err
	}
	doc, ok := zipEntry(zr, "word/document.xml")
	if !ok {
		return "", fmt.Errorf("%w: word/document.xml absent", ErrUnsupportedFormat)
	}

	var sb strings.Builder
	dec := xml.NewDecoder(bytes.NewReader(doc))
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br", "cr":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			case "tc":
				sb.WriteByte(' ')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}

type sharedStrings struct {
	Items []struct {
		Text string `xml:"t"`
		Runs []struct {
			Text string `xml:"t"`
		} `xml:"r"`
	} `xml:"si"`
}

type worksheet struct {
	Rows []struct {
		Cells []struct {
			Type   string `xml:"t,attr"`
			Value  string `xml:"v"`
			Inline struct {
				Text string `xml:"t"`
			} `xml:"is"`
		} `xml:"c"`
	} `xml:"sheetData>row"`
}

// xlsxText prints every sheet row by row, cells separated by tabs.
func xlsxText(data []byte) (string, error) {
	zr, err := openZip(data)
	if err != nil {
		return "", err
	}

	var shared []string
	if b, ok := zipEntry(zr, "xl/sharedStrings.xml"); ok {
		var ss sharedStrings
		if err := xml.Unmarshal(b, &ss); err != nil {
			return "", fmt.Errorf("sharedStrings.xml: %w", err)
		}
		for _, si := range ss.Items {
			s := si.Text
			for _, r := range si.Runs {
				s += r.Text
			}
			shared = append(shared, s)
		}
	}

	var sheets []string
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "xl/worksheets/sheet") && strings.HasSuffix(f.Name, ".xml") {
			sheets = append(sheets, f.Name)
		}
	}
	sort.Strings(sheets)

	var sb strings.Builder
	for _, name := range sheets {
		b, _ := zipEntry(zr, name)
		var ws worksheet
		if err := xml.Unmarshal(b, &ws); err != nil {
			return "", fmt.Errorf("%s: %w", name, err)
		}
		for _, row := range ws.Rows {
			cells := make([]string, 0, len(row.Cells))
			for _, c := range row.Cells {
				switch c.Type {
				case "s":
					if i, err := strconv.Atoi(c.Value); err == nil && i >= 0 && i < len(shared) {
						cells = append(cells, shared[i])
					}
				case "inlineStr":
					cells = append(cells, c.Inline.Text)
				default:
					cells = append(cells, c.Value)
				}
			}
			sb.WriteString(strings.Join(cells, "\t"))
			sb.WriteByte('\n')
		}
	}
	return sb.String(), nil
}
