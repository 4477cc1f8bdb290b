package images

import (
	"context"
	"fmt"

	"github.com/containerd/platforms"
	"github.com/google/go-containerregistry/pkg/name"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/opencontainers/go-digest"
)

// A resolved image for one platform.
type pulled struct {
	ref    name.Reference
	image  v1.Image
	digest digest.Digest
}

// Resolves ref and selects the image for platform.
//
// When the reference points at an index, the manifest matching the
// platform is selected. Layers are not downloaded until the image is
// written.
func pull(ctx context.Context, ref, platform string) (*pulled, error) {
	parsed, err := name.ParseReference(ref)
	if err != nil {
		return nil, fmt.Errorf("parse image ref %q: %w", ref, err)
	}

	p, err := platforms.Parse(platform)
	if err != nil {
		return nil, fmt.Errorf("parse platform %q: %w", platform, err)
	}

	desc, err := remote.Get(parsed, remote.WithContext(ctx), remote.WithPlatform(registryPlatform(p)))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ref, err)
	}

	img, err := desc.Image()
	if err != nil {
		return nil, fmt.Errorf("select %s image from %s: %w", platform, ref, err)
	}

	h, err := img.Digest()
	if err != nil {
		return nil, fmt.Errorf("digest %s: %w", ref, err)
	}

	d, err := digest.Parse(h.String())
	if err != nil {
		return nil, fmt.Errorf("digest %s: %w", ref, err)
	}

	return &pulled{ref: parsed, image: img, digest: d}, nil
}

// Converts an OCI platform into the registry client's representation.
func registryPlatform(p ocispec.Platform) v1.Platform {
	return v1.Platform{
		OS:           p.OS,
		Architecture: p.Architecture,
		Variant:      p.Variant,
		OSVersion:    p.OSVersion,
		OSFeatures:   p.OSFeatures,
	}
}
