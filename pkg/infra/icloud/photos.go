package icloud

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/icloudpull/pkg/domain/interfaces"
	"github.com/m-mizutani/icloudpull/pkg/utils/logging"
)

const (
	photosDatabasePath = "/database/1/com.apple.photos.cloud/production/private/records/query"
	photosRecordType   = "CPLAssetAndMasterByAddedDate"
	photosZone         = "PrimarySync"

	recordTypeMaster = "CPLMaster"

	// downloadURLFilename is the placeholder CloudKit puts in download URLs
	downloadURLFilename = "${f}"
)

var photoDesiredKeys = []string{
	"resOriginalRes", "resOriginalFileType", "filenameEnc",
	"originalOrientation", "itemType", "masterRef", "assetDate", "addedDate",
}

type queryRequest struct {
	Query struct {
		FilterBy   []queryFilter `json:"filterBy"`
		RecordType string        `json:"recordType"`
	} `json:"query"`
	ResultsLimit int      `json:"resultsLimit"`
	DesiredKeys  []string `json:"desiredKeys"`
	ZoneID       struct {
		ZoneName string `json:"zoneName"`
	} `json:"zoneID"`
}

type queryFilter struct {
	FieldName  string `json:"fieldName"`
	Comparator string `json:"comparator"`
	FieldValue struct {
		Type  string `json:"type"`
		Value any    `json:"value"`
	} `json:"fieldValue"`
}

type queryResponse struct {
	Records []record `json:"records"`
}

type record struct {
	RecordName string `json:"recordName"`
	RecordType string `json:"recordType"`
	Fields     struct {
		FilenameEnc *struct {
			Value string `json:"value"`
		} `json:"filenameEnc"`
		ResOriginalRes *struct {
			Value struct {
				DownloadURL string `json:"downloadURL"`
				Size        int64  `json:"size"`
			} `json:"value"`
		} `json:"resOriginalRes"`
	} `json:"fields"`
}

func newQuery(offset, limit int) queryRequest {
	var q queryRequest
	q.Query.RecordType = photosRecordType
	q.ResultsLimit = limit
	q.DesiredKeys = photoDesiredKeys
	q.ZoneID.ZoneName = photosZone

	var rank, direction queryFilter
	rank.FieldName = "startRank"
	rank.Comparator = "EQUALS"
	rank.FieldValue.Type = "INT64"
	rank.FieldValue.Value = offset

	direction.FieldName = "direction"
	direction.Comparator = "EQUALS"
	direction.FieldValue.Type = "STRING"
	direction.FieldValue.Value = "ASCENDING"

	q.Query.FilterBy = []queryFilter{rank, direction}
	return q
}

// session implements interfaces.Session over the CloudKit photo database
type session struct {
	login *login
}

// Photos pages through the whole library ordered by date added
func (s *session) Photos(ctx context.Context) ([]interfaces.Photo, error) {
	logger := logging.From(ctx)

	endpoint, err := s.queryURL()
	if err != nil {
		return nil, err
	}

	var photos []interfaces.Photo
	offset := 0
	for {
		page, err := s.fetchPage(ctx, endpoint, offset)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list photos", goerr.V("offset", offset))
		}
		if len(page) == 0 {
			break
		}

		photos = append(photos, page...)
		offset += len(page)
		logger.Debug("Fetched photo page", "offset", offset, "page_size", len(page))
	}

	return photos, nil
}

func (s *session) queryURL() (string, error) {
	ws, ok := s.login.data.Webservices["ckdatabasews"]
	if !ok || ws.URL == "" {
		return "", goerr.New("photo service is not available for this account")
	}

	q := url.Values{}
	q.Set("remapEnums", "true")
	q.Set("getCurrentSyncToken", "true")
	q.Set("clientBuildNumber", clientBuildNumber)
	q.Set("clientMasteringNumber", clientMasteringNumber)
	q.Set("clientId", s.login.client.clientID)
	q.Set("dsid", s.login.data.DsInfo.Dsid)

	return strings.TrimSuffix(ws.URL, "/") + photosDatabasePath + "?" + q.Encode(), nil
}

// fetchPage returns the photos of one page. Asset and master records come
// interleaved and only masters carry the file.
func (s *session) fetchPage(ctx context.Context, endpoint string, offset int) ([]interfaces.Photo, error) {
	// every photo is returned as an asset record plus a master record
	query := newQuery(offset, s.login.client.pageSize*2)

	resp, err := s.login.request(ctx, http.MethodPost, endpoint, query, nil)
	if err != nil {
		return nil, err
	}
	if !isSuccess(resp) {
		return nil, statusError(resp, "photo query failed")
	}

	var result queryResponse
	if err := decodeJSON(resp, &result); err != nil {
		return nil, err
	}

	var page []interfaces.Photo
	for _, rec := range result.Records {
		if rec.RecordType != recordTypeMaster {
			continue
		}
		p := &photo{
			login:    s.login,
			id:       rec.RecordName,
			filename: decodeFilename(rec),
		}
		if rec.Fields.ResOriginalRes != nil {
			p.downloadURL = rec.Fields.ResOriginalRes.Value.DownloadURL
			p.size = rec.Fields.ResOriginalRes.Value.Size
		}
		page = append(page, p)
	}

	return page, nil
}

func decodeFilename(rec record) string {
	if rec.Fields.FilenameEnc == nil || rec.Fields.FilenameEnc.Value == "" {
		return ""
	}
	raw, err := base64.StdEncoding.DecodeString(rec.Fields.FilenameEnc.Value)
	if err != nil {
		return ""
	}
	return string(raw)
}

// photo implements interfaces.Photo for a CloudKit master record
type photo struct {
	login       *login
	id          string
	filename    string
	downloadURL string
	size        int64
}

// Filename implements interfaces.Photo
func (p *photo) Filename() string {
	return p.filename
}

// Download implements interfaces.Photo
func (p *photo) Download(ctx context.Context) (io.ReadCloser, error) {
	if p.downloadURL == "" {
		return nil, goerr.New("photo has no original resource", goerr.V("record", p.id))
	}

	target := strings.ReplaceAll(p.downloadURL, downloadURLFilename, url.PathEscape(p.filename))
	logging.From(ctx).Debug("Downloading photo", "record", p.id, "size_bytes", p.size)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create download request", goerr.V("record", p.id))
	}

	resp, err := p.login.content.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to download photo", goerr.V("record", p.id))
	}
	if !isSuccess(resp) {
		return nil, statusError(resp, "photo download failed")
	}

	return resp.Body, nil
}
