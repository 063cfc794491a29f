// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pubmed

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Article is the part of a PubMed record the pipeline keeps. Abstract is
// nil when the record has no abstract.
type Article struct {
	PMID     int
	Abstract *string
}

// ParseArticles decodes an EFetch XML document. Only PubmedArticle entries
// are returned; book records are ignored. The abstract is the first
// AbstractText section of the article.
func ParseArticles(r io.Reader) ([]Article, error) {
	var set articleSet
	if err := xml.NewDecoder(r).Decode(&set); err != nil {
		return nil, fmt.Errorf("parsing efetch response: %w", err)
	}

	articles := make([]Article, 0, len(set.Articles))
	for _, pa := range set.Articles {
		pmid, err := strconv.Atoi(strings.TrimSpace(pa.Citation.PMID))
		if err != nil {
			return nil, fmt.Errorf("invalid PMID %q in efetch response", pa.Citation.PMID)
		}
		a := Article{PMID: pmid}
		if abs := pa.Citation.Article.Abstract; abs != nil && len(abs.Texts) > 0 {
			text := strings.TrimSpace(string(abs.Texts[0]))
			a.Abstract = &text
		}
		articles = append(articles, a)
	}
	return articles, nil
}

// EFetch XML structures.
type articleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	Citation medlineCitation `xml:"MedlineCitation"`
}

type medlineCitation struct {
	PMID    string        `xml:"PMID"`
	Article medlineRecord `xml:"Article"`
}

type medlineRecord struct {
	Title    string    `xml:"ArticleTitle"`
	Abstract *abstract `xml:"Abstract"`
}

type abstract struct {
	Texts []abstractText `xml:"AbstractText"`
}

// abstractText collects the character data of an AbstractText element,
// including text inside inline markup such as <i> or <sup>.
type abstractText string

func (t *abstractText) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var b strings.Builder
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch v := tok.(type) {
		case xml.CharData:
			b.Write(v)
		case xml.EndElement:
			if v.Name == start.Name {
				*t = abstractText(b.String())
				return nil
			}
		}
	}
}
