// Package imap implements folder.Store against a live IMAP account.
package imap

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message/mail"

	"github.com/mhoran/filtersync/internal/config"
	"github.com/mhoran/filtersync/internal/folder"
)

type Client struct {
	client *imapclient.Client
	config *config.Config
	delim  string
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		config: cfg,
		delim:  "/",
	}
}

func (c *Client) Connect() error {
	password, err := c.config.GetPassword()
	if err != nil {
		return fmt.Errorf("failed to get password: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", c.config.Account.Host, c.config.Account.Port)
	options := &imapclient.Options{
		TLSConfig: &tls.Config{
			ServerName: c.config.Account.Host,
		},
	}

	var client *imapclient.Client
	if c.config.Account.StartTLS {
		client, err = imapclient.DialStartTLS(addr, options)
	} else {
		client, err = imapclient.DialTLS(addr, options)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to IMAP server: %w", err)
	}

	if err := client.Login(c.config.Account.Email, password).Wait(); err != nil {
		client.Close()
		return fmt.Errorf("IMAP login failed: %w", err)
	}

	c.client = client
	return nil
}

func (c *Client) Close() error {
	if c.client != nil {
		// Best effort logout; the connection is torn down either way.
		_ = c.client.Logout().Wait()
		return c.client.Close()
	}
	return nil
}

// Accounts presents the connection as a single account with one synthetic
// root node whose children are the server's top-level mailboxes.
func (c *Client) Accounts(ctx context.Context) ([]folder.Account, error) {
	acct := folder.Account{
		ID:     c.config.Account.Email,
		Name:   c.config.Account.Email,
		Emails: c.config.Identities(),
		Roots: []folder.Node{{
			ID:   "",
			Name: c.config.Account.Email,
			Path: "/",
		}},
	}
	return []folder.Account{acct}, nil
}

// Account returns the account, or nil when id names a different one. A
// miss is not an error so callers can report "no data".
func (c *Client) Account(ctx context.Context, id string) (*folder.Account, error) {
	accounts, err := c.Accounts(ctx)
	if err != nil {
		return nil, err
	}
	if id != "" && !strings.EqualFold(id, accounts[0].ID) {
		return nil, nil
	}
	return &accounts[0], nil
}

// SubFolders lists the direct children of a folder. The empty folder ID is
// the synthetic account root.
func (c *Client) SubFolders(ctx context.Context, folderID string) ([]folder.Node, error) {
	if err := c.ready(ctx); err != nil {
		return nil, err
	}

	pattern := "%"
	if folderID != "" {
		pattern = folderID + c.delim + "%"
	}
	mailboxes, err := c.client.List("", pattern, nil).Collect()
	if err != nil {
		return nil, fmt.Errorf("failed to list %q: %w", pattern, err)
	}

	var nodes []folder.Node
	for _, mb := range mailboxes {
		if mb.Delim != 0 {
			c.delim = string(mb.Delim)
		}
		name := mb.Mailbox
		if i := strings.LastIndex(name, c.delim); i >= 0 {
			name = name[i+len(c.delim):]
		}
		attrs := make([]string, 0, len(mb.Attrs))
		for _, a := range mb.Attrs {
			attrs = append(attrs, string(a))
		}
		nodes = append(nodes, folder.Node{
			ID:    mb.Mailbox,
			Name:  name,
			Attrs: attrs,
		})
	}
	return nodes, nil
}

// CreateFolder creates one child mailbox. An ALREADYEXISTS answer returns
// the derived node together with folder.ErrExists so the creation batch
// can keep resolving deeper segments.
func (c *Client) CreateFolder(ctx context.Context, parentID, name string) (folder.Node, error) {
	if err := c.ready(ctx); err != nil {
		return folder.Node{}, err
	}

	mailbox := name
	if parentID != "" {
		mailbox = parentID + c.delim + name
	}
	node := folder.Node{ID: mailbox, Name: name}

	if err := c.client.Create(mailbox, nil).Wait(); err != nil {
		if alreadyExists(err) {
			return node, folder.ErrExists
		}
		return folder.Node{}, fmt.Errorf("failed to create mailbox %s: %w", mailbox, err)
	}
	return node, nil
}

// Messages fetches the authors of the most recent messages in a mailbox,
// newest first.
func (c *Client) Messages(ctx context.Context, folderID string, limit int) ([]folder.Message, error) {
	if err := c.ready(ctx); err != nil {
		return nil, err
	}

	selected, err := c.client.Select(folderID, &imap.SelectOptions{ReadOnly: true}).Wait()
	if err != nil {
		return nil, fmt.Errorf("failed to select mailbox %s: %w", folderID, err)
	}
	if selected.NumMessages == 0 {
		return nil, nil
	}

	start := uint32(1)
	if limit > 0 && selected.NumMessages > uint32(limit) {
		start = selected.NumMessages - uint32(limit) + 1
	}
	var seqSet imap.SeqSet
	seqSet.AddRange(start, selected.NumMessages)

	headerSection := &imap.FetchItemBodySection{
		Specifier:    imap.PartSpecifierHeader,
		HeaderFields: []string{"From"},
		Peek:         true,
	}
	fetchOptions := &imap.FetchOptions{
		Envelope:    true,
		BodySection: []*imap.FetchItemBodySection{headerSection},
	}

	fetchCmd := c.client.Fetch(seqSet, fetchOptions)
	defer fetchCmd.Close()

	var messages []folder.Message
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}

		var envelope *imap.Envelope
		var header []byte
		for {
			item := msg.Next()
			if item == nil {
				break
			}
			switch data := item.(type) {
			case imapclient.FetchItemDataEnvelope:
				envelope = data.Envelope
			case imapclient.FetchItemDataBodySection:
				header, _ = readAll(data.Literal)
			}
		}

		author := ""
		if envelope != nil && len(envelope.From) > 0 {
			author = formatAddress(envelope.From[0])
		}
		if author == "" {
			// Some servers return incomplete envelopes; fall back to the
			// fetched From header.
			author = authorFromHeader(header)
		}
		if author == "" {
			continue
		}
		messages = append(messages, folder.Message{Author: author})
	}

	if err := fetchCmd.Close(); err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}

	// Reverse so the newest message comes first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (c *Client) ready(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("not connected")
	}
	return ctx.Err()
}

func alreadyExists(err error) bool {
	var imapErr *imap.Error
	if errors.As(err, &imapErr) && imapErr.Code == imap.ResponseCodeAlreadyExists {
		return true
	}
	return strings.Contains(strings.ToUpper(err.Error()), "ALREADYEXISTS")
}

func formatAddress(addr imap.Address) string {
	if addr.Name != "" {
		return fmt.Sprintf("%s <%s>", addr.Name, addr.Addr())
	}
	return addr.Addr()
}

// authorFromHeader parses a fetched header section and returns the first
// From address, formatted like an envelope author.
func authorFromHeader(header []byte) string {
	if len(header) == 0 {
		return ""
	}
	mr, err := mail.CreateReader(bytes.NewReader(header))
	if err != nil || mr == nil {
		return ""
	}
	addrs, err := mr.Header.AddressList("From")
	if err != nil || len(addrs) == 0 {
		return ""
	}
	if addrs[0].Name != "" {
		return fmt.Sprintf("%s <%s>", addrs[0].Name, addrs[0].Address)
	}
	return addrs[0].Address
}

func readAll(r imap.LiteralReader) ([]byte, error) {
	data := make([]byte, r.Size())
	_, err := io.ReadFull(r, data)
	return data, err
}
