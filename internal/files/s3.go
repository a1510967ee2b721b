package files

import (
	"bytes"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"
)

type S3Files struct {
	config *S3Config
	s3     s3iface.S3API
}

func newS3Files(s3Config *S3Config) (S3Files, error) {
	s3Files := S3Files{config: s3Config}

	sess, err := session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	})

	if err != nil {
		return s3Files, errors.Wrap(err, "failed to create aws session")
	}

	s3Files.s3 = s3.New(sess)
	return s3Files, nil
}

func (s S3Files) WriteFile(file *File) error {
	_, err := s.s3.PutObject(&s3.PutObjectInput{
		Body:   bytes.NewReader(file.Data),
		Bucket: aws.String(s.config.BucketName),
		Key:    aws.String(path.Join(file.ID, file.Name)),
	})

	if err != nil {
		return errors.Wrapf(err, "failed to create %s file", file.Name)
	}

	return nil
}

func (s S3Files) WriteFiles(files ...*File) []error {
	return writeAll(s.WriteFile, files)
}

func (s S3Files) GetFile(id string, name string) ([]byte, error) {
	output, err := s.s3.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(s.config.BucketName),
		Key:    aws.String(path.Join(id, name)),
	})

	if err != nil {
		// nolint:errorlint // aws does not expose the error type
		if awsErr, ok := err.(awserr.Error); ok && awsErr.Code() == s3.ErrCodeNoSuchKey {
			return nil, errors.Wrapf(ErrNotFound, "cannot locate file %s by id %s", name, id)
		}

		return nil, errors.Wrapf(err, "failed to get the file %s by id %s", name, id)
	}

	defer output.Body.Close()

	buffer := new(bytes.Buffer)

	if _, err := buffer.ReadFrom(output.Body); err != nil {
		return nil, errors.Wrapf(err, "failed to read the file %s by id %s", name, id)
	}

	return buffer.Bytes(), nil
}
