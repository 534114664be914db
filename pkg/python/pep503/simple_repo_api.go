// Package pep503 implements PEP 503 -- Simple Repository API.
//
// https://www.python.org/dev/peps/pep-0503/
package pep503

import (
	"bytes"
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/datawire/pylock/pkg/python/pep440"
)

//nolint:gochecknoglobals // Would be 'const'.
var reNameSeparators = regexp.MustCompile("[-_.]+")

// NormalizeName normalizes a distribution name: runs of '-', '_', and '.'
// collapse to a single '-', and the result is lowercased.
func NormalizeName(str string) string {
	return strings.ToLower(reNameSeparators.ReplaceAllLiteralString(str, "-"))
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
	Python     *pep440.Version
}

const PyPIBaseURL = "https://pypi.org/simple/"

func (c *Client) fillDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = PyPIBaseURL
	}
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
	if c.UserAgent == "" {
		c.UserAgent = "github.com/datawire/pylock/pkg/python/pep503"
	}
}

type HTTPError struct {
	Status     string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %s", e.Status)
}

// Get fetches a URL, verifying any "#<alg>=<hexdigest>" checksum in the URL
// fragment against the response body.
func (c Client) Get(ctx context.Context, requestURL string) (_ []byte, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("GET %q => %w", requestURL, err)
		}
	}()
	c.fillDefaults()

	// 1. Build the request
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.UserAgent)

	// 2. Do the networking
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		_ = resp.Body.Close()
		return nil, err
	}
	if err := resp.Body.Close(); err != nil {
		return nil, err
	}

	// 3. Validate the result
	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{Status: resp.Status, StatusCode: resp.StatusCode}
	}
	if u, err := url.Parse(requestURL); err == nil && u.Fragment != "" {
		if keyvals, err := url.ParseQuery(u.Fragment); err == nil {
			for key, vals := range keyvals {
				for _, val := range vals {
					sum := FragmentDigest(key, content)
					if sum != "" && sum != val {
						return nil, fmt.Errorf("checksum mismatch: %s: expected=%s actual=%s",
							key, val, sum)
					}
				}
			}
		}
	}

	return content, nil
}

// FragmentDigest computes the named digest of content, hex-encoded; it
// returns "" if the algorithm is not one of the URL-fragment checksum
// algorithms ('md5', 'sha1', 'sha224', 'sha256', 'sha384', 'sha512').
func FragmentDigest(algorithm string, content []byte) string {
	var sum []byte
	switch algorithm {
	case "md5":
		_sum := md5.Sum(content)
		sum = _sum[:]
	case "sha1":
		_sum := sha1.Sum(content)
		sum = _sum[:]
	case "sha224":
		_sum := sha256.Sum224(content)
		sum = _sum[:]
	case "sha256":
		_sum := sha256.Sum256(content)
		sum = _sum[:]
	case "sha384":
		_sum := sha512.Sum384(content)
		sum = _sum[:]
	case "sha512":
		_sum := sha512.Sum512(content)
		sum = _sum[:]
	default:
		return ""
	}
	return hex.EncodeToString(sum)
}

func visitHTML(node *html.Node, fn func(*html.Node) error) error {
	if err := fn(node); err != nil {
		return err
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if err := visitHTML(child, fn); err != nil {
			return err
		}
	}
	return nil
}

type Link struct {
	Text      string
	HRef      string
	DataAttrs map[string]string

	client Client
}

func (l Link) Get(ctx context.Context) ([]byte, error) {
	return l.client.Get(ctx, l.HRef)
}

func (c Client) getHTML5Index(ctx context.Context, requestURL string) ([]Link, error) {
	content, err := c.Get(ctx, requestURL)
	if err != nil {
		return nil, err
	}

	location, err := url.Parse(requestURL)
	if err != nil {
		return nil, err
	}

	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}

	var links []Link
	if err := visitHTML(doc, func(node *html.Node) error {
		if node.Type != html.ElementNode || node.Data != "a" {
			return nil
		}
		link := Link{
			DataAttrs: make(map[string]string),
			client:    c,
		}
		for _, attr := range node.Attr {
			switch {
			case attr.Namespace == "" && attr.Key == "href":
				href, err := location.Parse(attr.Val)
				if err != nil {
					return err
				}
				link.HRef = href.String()
			case attr.Namespace == "" && strings.HasPrefix(attr.Key, "data-"):
				link.DataAttrs[attr.Key] = attr.Val
			}
		}
		var text strings.Builder
		_ = visitHTML(node, func(child *html.Node) error {
			if child.Type == html.TextNode {
				text.WriteString(child.Data)
			}
			return nil
		})
		link.Text = text.String()
		links = append(links, link)
		return nil
	}); err != nil {
		return nil, err
	}

	return links, nil
}

// ListPackageFiles lists the files that the index has for a package,
// filtering out files whose data-requires-python attribute excludes
// c.Python (when c.Python is set).
func (c Client) ListPackageFiles(ctx context.Context, pkgname string) ([]Link, error) {
	// "the only valid characters in a name are the ASCII alphabet, ASCII
	// numbers, `.`, `-`, and `_`."
	for _, char := range pkgname {
		if !(('a' <= char && char <= 'z') ||
			('A' <= char && char <= 'Z') ||
			('0' <= char && char <= '9') ||
			char == '.' ||
			char == '-' ||
			char == '_') {
			return nil, fmt.Errorf("illegal character in pkgname: %q: %s",
				pkgname, strconv.QuoteRuneToASCII(char))
		}
	}

	c.fillDefaults()
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, err
	}
	u.Path = path.Join(u.Path, NormalizeName(pkgname))
	rawLinks, err := c.getHTML5Index(ctx, u.String())
	if err != nil {
		return nil, err
	}
	links := make([]Link, 0, len(rawLinks))
	for _, link := range rawLinks {
		if c.Python != nil {
			if reqPy := link.DataAttrs["data-requires-python"]; reqPy != "" {
				spec, err := pep440.ParseSpecifier(reqPy)
				if err == nil && !spec.Match(*c.Python) {
					continue
				}
			}
		}
		links = append(links, link)
	}
	return links, nil
}
