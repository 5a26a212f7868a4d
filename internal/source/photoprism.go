package source

import (
	"bytes"
	"context"
	"image"
	"log/slog"
	"net/http"

	"github.com/disintegration/gift"
	"github.com/drummonds/photoprism-go-api/api"

	"github.com/drummonds/fbsnap/internal/errors"
)

const PhotoPrismPrefix = `photoprism:`

// PhotoPrismOptions say how photos are fetched from a PhotoPrism server.
type PhotoPrismOptions struct {
	Domain string
	Token  string
	// Thumb selects a server side thumbnail size such as "fit_1920"
	// instead of the original file.
	Thumb string
}

func (a PhotoPrismOptions) client() (*api.ClientWithResponses, error) {
	if a.Domain == `` {
		return nil, errors.Kind(errors.ErrInvalidInput, `no PhotoPrism server configured`)
	}
	provider := api.NewXAuthProvider(a.Token)
	nc, err := api.NewClientWithResponses(a.Domain, api.WithRequestEditorFn(provider.Intercept))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, `PhotoPrism client for %s`, a.Domain)
	}
	return nc, nil
}

// PhotoPrism is one photo on a PhotoPrism server, fetched by uid.
type PhotoPrism struct {
	UID     string
	Options PhotoPrismOptions
}

func (p *PhotoPrism) Name() string { return p.UID }

// Image downloads the photo's first JPEG and turns it upright.
func (p *PhotoPrism) Image(ctx context.Context) (image.Image, error) {
	c, err := p.Options.client()
	if err != nil {
		return nil, err
	}
	photo, err := c.GetPhotoWithResponse(ctx, p.UID)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrExternalTool, `photo %s`, p.UID)
	}
	if photo.HTTPResponse.StatusCode != http.StatusOK || photo.JSON200 == nil || photo.JSON200.Files == nil {
		return nil, errors.Kind(errors.ErrExternalTool, `photo %s: status %d`, p.UID, photo.HTTPResponse.StatusCode)
	}
	file, ok := firstJpeg(*photo.JSON200.Files)
	if !ok {
		return nil, errors.Kind(errors.ErrExternalTool, `photo %s has no JPEG file`, p.UID)
	}
	orientation := 1
	if file.Orientation != nil {
		orientation = *file.Orientation
	}

	var body []byte
	if p.Options.Thumb == `` {
		dl, err := c.GetDownloadWithResponse(ctx, *file.Hash)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrExternalTool, `download %s`, p.UID)
		}
		if dl.HTTPResponse.StatusCode != http.StatusOK {
			return nil, errors.Kind(errors.ErrExternalTool, `download %s: status %d`, p.UID, dl.HTTPResponse.StatusCode)
		}
		body = dl.Body
	} else {
		th, err := c.GetThumbWithResponse(ctx, *file.Hash, p.Options.Token, p.Options.Thumb)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrExternalTool, `thumbnail %s`, p.UID)
		}
		if th.HTTPResponse.StatusCode != http.StatusOK {
			return nil, errors.Kind(errors.ErrExternalTool, `thumbnail %s: status %d`, p.UID, th.HTTPResponse.StatusCode)
		}
		body = th.Body
	}
	slog.Debug(`photoprism download`, `uid`, p.UID, `bytes`, len(body), `orientation`, orientation)

	raw, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrExternalTool, `decode photo %s`, p.UID)
	}
	return Orient(raw, orientation), nil
}

func firstJpeg(files []api.EntityFile) (api.EntityFile, bool) {
	for _, file := range files {
		if file.Mime != nil && *file.Mime == `image/jpeg` && file.Hash != nil {
			return file, true
		}
	}
	return api.EntityFile{}, false
}

// Orient applies an EXIF orientation (1 to 8) so the picture is upright.
// Other values leave it as it is.
func Orient(img image.Image, orientation int) image.Image {
	g := gift.New()
	switch orientation {
	case 2:
		g.Add(gift.FlipHorizontal())
	case 3:
		g.Add(gift.Rotate180())
	case 4:
		g.Add(gift.FlipVertical())
	case 5:
		g.Add(gift.Transpose())
	case 6:
		g.Add(gift.Rotate270())
	case 7:
		g.Add(gift.Transverse())
	case 8:
		g.Add(gift.Rotate90())
	default:
		return img
	}
	oriented := image.NewNRGBA(g.Bounds(img.Bounds()))
	g.Draw(oriented, img)
	return oriented
}
